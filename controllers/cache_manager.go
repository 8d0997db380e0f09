package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catalog-service/models"
	aws_pkg "catalog-service/pkg/aws"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultCacheTTL = 5 * time.Minute

	productCachePrefix = "catalog:products:"
	versionSuffix      = ":version"
)

// CacheManager caches a seller's product reads in redis. Keys embed a
// per-seller version that every write bumps, so stale entries are never read
// again and simply expire. A nil client disables caching.
type CacheManager struct {
	redis   *redis.Client
	ttl     time.Duration
	metrics *aws_pkg.MetricsClient
	logger  *zap.Logger
}

func NewCacheManager(client *redis.Client, metrics *aws_pkg.MetricsClient, logger *zap.Logger) *CacheManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheManager{
		redis:   client,
		ttl:     DefaultCacheTTL,
		metrics: metrics,
		logger:  logger,
	}
}

// GetProductList returns the cached product list of a seller.
func (cm *CacheManager) GetProductList(ctx context.Context, sellerID uint) ([]models.Product, int64, bool) {
	var products []models.Product
	version, ok := cm.get(ctx, sellerID, "list", &products)
	return products, version, ok
}

// SetProductListAsync caches a product list read under version.
func (cm *CacheManager) SetProductListAsync(sellerID uint, version int64, products []models.Product) {
	cm.setAsync(sellerID, version, "list", products)
}

// GetProduct returns a cached product of a seller.
func (cm *CacheManager) GetProduct(ctx context.Context, sellerID, productID uint) (*models.Product, int64, bool) {
	var product models.Product
	version, ok := cm.get(ctx, sellerID, fmt.Sprintf("id:%d", productID), &product)
	if !ok {
		return nil, version, false
	}
	return &product, version, true
}

// SetProductAsync caches a product read under version.
func (cm *CacheManager) SetProductAsync(sellerID uint, version int64, product *models.Product) {
	cm.setAsync(sellerID, version, fmt.Sprintf("id:%d", product.ID), product)
}

// Invalidate drops every cached read of a seller by bumping its version.
func (cm *CacheManager) Invalidate(ctx context.Context, sellerID uint) {
	if cm == nil || cm.redis == nil {
		return
	}
	newVersion, err := cm.redis.Incr(ctx, versionKey(sellerID)).Result()
	if err != nil {
		cm.logger.Error("Failed to invalidate product cache", zap.Error(err), zap.Uint("seller_id", sellerID))
		return
	}
	cm.logger.Debug("Product cache invalidated", zap.Uint("seller_id", sellerID), zap.Int64("new_version", newVersion))
}

// get reads key under the seller's current version. The returned version is
// zero when the cache is unusable, in which case callers must not write back.
func (cm *CacheManager) get(ctx context.Context, sellerID uint, key string, dst interface{}) (int64, bool) {
	if cm == nil || cm.redis == nil {
		return 0, false
	}
	version, err := cm.version(ctx, sellerID)
	if err != nil {
		cm.logger.Warn("Product cache unavailable", zap.Error(err))
		return 0, false
	}

	raw, err := cm.redis.Get(ctx, entryKey(sellerID, version, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cm.logger.Warn("Failed to read product cache", zap.Error(err))
		}
		cm.record(ctx, aws_pkg.MetricCacheMisses)
		return version, false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		cm.logger.Warn("Failed to unmarshal cached products", zap.Error(err))
		cm.record(ctx, aws_pkg.MetricCacheMisses)
		return version, false
	}
	cm.record(ctx, aws_pkg.MetricCacheHits)
	return version, true
}

func (cm *CacheManager) setAsync(sellerID uint, version int64, key string, value interface{}) {
	if cm == nil || cm.redis == nil || version == 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		cm.logger.Warn("Failed to marshal products for cache", zap.Error(err))
		return
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := cm.redis.Set(bgCtx, entryKey(sellerID, version, key), data, cm.ttl).Err(); err != nil {
			cm.logger.Warn("Failed to cache products", zap.Error(err), zap.Uint("seller_id", sellerID))
		}
	}()
}

// version returns the seller's cache version, initializing it on first use.
func (cm *CacheManager) version(ctx context.Context, sellerID uint) (int64, error) {
	key := versionKey(sellerID)
	ver, err := cm.redis.Get(ctx, key).Int64()
	if err == nil && ver > 0 {
		return ver, nil
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}
	if err := cm.redis.SetNX(ctx, key, 1, 0).Err(); err != nil {
		return 0, err
	}
	return cm.redis.Get(ctx, key).Int64()
}

func (cm *CacheManager) record(ctx context.Context, metric string) {
	if cm.metrics.IsEnabled() {
		go func() {
			bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = cm.metrics.RecordCount(bgCtx, metric, map[string]string{"Cache": "products"})
		}()
	}
}

func versionKey(sellerID uint) string {
	return fmt.Sprintf("%s%d%s", productCachePrefix, sellerID, versionSuffix)
}

func entryKey(sellerID uint, version int64, key string) string {
	return fmt.Sprintf("%s%d:v%d:%s", productCachePrefix, sellerID, version, key)
}
