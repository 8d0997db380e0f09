package repository

import (
	"context"

	"catalog-service/models"

	"gorm.io/gorm"
)

// ProductRepository defines owner-scoped product data access. Every lookup
// filters by owner, so a product of another seller behaves as missing.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByOwnerAndID(ctx context.Context, ownerID, id uint) (*models.Product, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, product *models.Product) error
}

// GormProductRepository implements ProductRepository using GORM.
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository.
func NewGormProductRepository(db *gorm.DB) ProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *GormProductRepository) FindByOwnerAndID(ctx context.Context, ownerID, id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND seller_id = ?", id, ownerID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListByOwner returns the owner's products, newest first.
func (r *GormProductRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Product, error) {
	products := []models.Product{}
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", ownerID).
		Order("id DESC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Update writes every mutable column, including cleared ones, and bumps
// updated_at.
func (r *GormProductRepository) Update(ctx context.Context, product *models.Product) error {
	result := r.db.WithContext(ctx).
		Model(product).
		Where("seller_id = ?", product.SellerID).
		Select("name", "price", "description", "marketing_description", "image_url", "updated_at").
		Updates(product)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormProductRepository) Delete(ctx context.Context, product *models.Product) error {
	result := r.db.WithContext(ctx).
		Where("seller_id = ?", product.SellerID).
		Delete(product)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
