package services

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	apperrors "catalog-service/common/errors"
	"catalog-service/common/logger"
	"catalog-service/models"
	aws_pkg "catalog-service/pkg/aws"
	"catalog-service/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	minProductNameLength = 2
	// writeTimeout bounds the write that follows enrichment.
	writeTimeout = 10 * time.Second
)

// ContentEnricher derives marketing copy and imagery. Implementations never
// fail: they degrade to a local fallback instead.
type ContentEnricher interface {
	Describe(ctx context.Context, name string, notes *string, price *float64) string
	Illustrate(ctx context.Context, marketingText, name string) string
}

// ProductService defines owner-scoped product business logic.
type ProductService interface {
	Create(ctx context.Context, ownerID uint, req *models.CreateProductRequest) (*models.Product, error)
	Get(ctx context.Context, ownerID, id uint) (*models.Product, error)
	List(ctx context.Context, ownerID uint) ([]models.Product, error)
	Update(ctx context.Context, ownerID, id uint, patch models.ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, ownerID, id uint) error
}

type productServiceImpl struct {
	repo     repository.ProductRepository
	enricher ContentEnricher
	logger   *zap.Logger
	metrics  MetricsRecorder
}

// NewProductService creates a new ProductService.
func NewProductService(repo repository.ProductRepository, enricher ContentEnricher, metrics MetricsRecorder, logger *zap.Logger) ProductService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &productServiceImpl{
		repo:     repo,
		enricher: enricher,
		logger:   logger,
		metrics:  metrics,
	}
}

// Create enriches the product before its first write. A non-empty Image on
// the request replaces the generated image.
func (s *productServiceImpl) Create(ctx context.Context, ownerID uint, req *models.CreateProductRequest) (*models.Product, error) {
	details := map[string]string{}
	if utf8.RuneCountInString(req.Name) < minProductNameLength {
		details["nombre"] = "must be at least 2 characters"
	}
	if req.Price == nil {
		details["precio"] = "is required"
	} else if *req.Price < 0 {
		details["precio"] = "must be greater than or equal to 0"
	}
	if len(details) > 0 {
		return nil, apperrors.Validation("Invalid request", details)
	}

	// Enrichment outlives a client disconnect; providers bound it with their own timeouts.
	enrichCtx := context.WithoutCancel(ctx)
	marketing := s.enricher.Describe(enrichCtx, req.Name, req.Description, req.Price)

	var imageURL string
	if req.Image != nil && *req.Image != "" {
		imageURL = *req.Image
	} else {
		imageURL = s.enricher.Illustrate(enrichCtx, marketing, req.Name)
	}

	product := &models.Product{
		SellerID:             ownerID,
		Name:                 req.Name,
		Price:                *req.Price,
		Description:          req.Description,
		MarketingDescription: &marketing,
		ImageURL:             &imageURL,
	}
	writeCtx, cancel := detachedWrite(ctx)
	defer cancel()
	if err := s.repo.Create(writeCtx, product); err != nil {
		return nil, s.internal(ctx, "create product", err)
	}

	logger.For(ctx, s.logger).Info("Product created", zap.Uint("product_id", product.ID), zap.Uint("seller_id", ownerID))
	recordAsync(s.metrics, s.logger, aws_pkg.MetricProductsCreated)
	return product, nil
}

func (s *productServiceImpl) Get(ctx context.Context, ownerID, id uint) (*models.Product, error) {
	product, err := s.repo.FindByOwnerAndID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Producto no encontrado")
		}
		return nil, s.internal(ctx, "find product", err)
	}
	return product, nil
}

// List returns the owner's products, newest first.
func (s *productServiceImpl) List(ctx context.Context, ownerID uint) ([]models.Product, error) {
	products, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, s.internal(ctx, "list products", err)
	}
	return products, nil
}

// Update merges the patch into the stored product. Renaming without an
// explicit marketing override regenerates the copy from the merged state, and
// also the image unless imagen or imagen_url is part of the patch.
func (s *productServiceImpl) Update(ctx context.Context, ownerID, id uint, patch models.ProductPatch) (*models.Product, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	product, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if patch.Name.Set {
		product.Name = patch.Name.Value
	}
	if patch.Price.Set {
		product.Price = patch.Price.Value
	}
	if patch.Description.Set {
		product.Description = patch.Description.Ptr()
	}
	if patch.MarketingDescription.Set {
		product.MarketingDescription = patch.MarketingDescription.Ptr()
	}
	switch {
	case patch.Image.Set:
		product.ImageURL = nonEmpty(patch.Image.Ptr())
	case patch.ImageURL.Set:
		product.ImageURL = nonEmpty(patch.ImageURL.Ptr())
	}

	if patch.RegeneratesContent() {
		enrichCtx := context.WithoutCancel(ctx)
		price := product.Price
		marketing := s.enricher.Describe(enrichCtx, product.Name, product.Description, &price)
		product.MarketingDescription = &marketing
		if patch.RegeneratesImage() {
			imageURL := s.enricher.Illustrate(enrichCtx, marketing, product.Name)
			product.ImageURL = &imageURL
		}
	}

	writeCtx, cancel := detachedWrite(ctx)
	defer cancel()
	if err := s.repo.Update(writeCtx, product); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Producto no encontrado")
		}
		return nil, s.internal(ctx, "update product", err)
	}

	recordAsync(s.metrics, s.logger, aws_pkg.MetricProductsUpdated)
	return product, nil
}

func (s *productServiceImpl) Delete(ctx context.Context, ownerID, id uint) error {
	product, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Producto no encontrado")
		}
		return s.internal(ctx, "delete product", err)
	}

	logger.For(ctx, s.logger).Info("Product deleted", zap.Uint("product_id", id), zap.Uint("seller_id", ownerID))
	recordAsync(s.metrics, s.logger, aws_pkg.MetricProductsDeleted)
	return nil
}

// validatePatch rejects nulls for required columns and out of range values.
func validatePatch(patch models.ProductPatch) error {
	details := map[string]string{}
	if patch.Name.Set {
		if patch.Name.Null {
			details["nombre"] = "must not be null"
		} else if utf8.RuneCountInString(patch.Name.Value) < minProductNameLength {
			details["nombre"] = "must be at least 2 characters"
		}
	}
	if patch.Price.Set {
		if patch.Price.Null {
			details["precio"] = "must not be null"
		} else if patch.Price.Value < 0 {
			details["precio"] = "must be greater than or equal to 0"
		}
	}
	if len(details) > 0 {
		return apperrors.Validation("Invalid request", details)
	}
	return nil
}

// detachedWrite gives the write after enrichment its own deadline, independent
// of the request's.
func detachedWrite(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func (s *productServiceImpl) internal(ctx context.Context, op string, err error) error {
	logger.For(ctx, s.logger).Error("Product operation failed", zap.String("op", op), zap.Error(err))
	return apperrors.Internal(err)
}
