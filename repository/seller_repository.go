package repository

import (
	"context"
	"errors"

	"catalog-service/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrDuplicateEmail is returned when the unique email index rejects a write.
var ErrDuplicateEmail = errors.New("email already registered")

// SellerRepository defines the interface for seller data access.
type SellerRepository interface {
	Create(ctx context.Context, seller *models.Seller) error
	FindByID(ctx context.Context, id uint) (*models.Seller, error)
	FindByEmail(ctx context.Context, email string) (*models.Seller, error)
	List(ctx context.Context, offset, limit int) ([]models.Seller, error)
	Update(ctx context.Context, seller *models.Seller) error
	Delete(ctx context.Context, seller *models.Seller) error
}

// GormSellerRepository implements SellerRepository using GORM.
type GormSellerRepository struct {
	db *gorm.DB
}

// NewGormSellerRepository creates a new GormSellerRepository.
func NewGormSellerRepository(db *gorm.DB) SellerRepository {
	return &GormSellerRepository{db: db}
}

// Create inserts a new seller. The email is normalized first.
func (r *GormSellerRepository) Create(ctx context.Context, seller *models.Seller) error {
	seller.Email = models.NormalizeEmail(seller.Email)
	return translateWriteError(r.db.WithContext(ctx).Create(seller).Error)
}

func (r *GormSellerRepository) FindByID(ctx context.Context, id uint) (*models.Seller, error) {
	var seller models.Seller
	if err := r.db.WithContext(ctx).First(&seller, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &seller, nil
}

func (r *GormSellerRepository) FindByEmail(ctx context.Context, email string) (*models.Seller, error) {
	var seller models.Seller
	err := r.db.WithContext(ctx).
		Where("email = ?", models.NormalizeEmail(email)).
		First(&seller).Error
	if err != nil {
		return nil, err
	}
	return &seller, nil
}

// List returns sellers ordered by id.
func (r *GormSellerRepository) List(ctx context.Context, offset, limit int) ([]models.Seller, error) {
	var sellers []models.Seller
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&sellers).Error
	if err != nil {
		return nil, err
	}
	return sellers, nil
}

// Update writes email and password hash back and bumps updated_at.
func (r *GormSellerRepository) Update(ctx context.Context, seller *models.Seller) error {
	seller.Email = models.NormalizeEmail(seller.Email)
	result := r.db.WithContext(ctx).
		Model(seller).
		Select("email", "password_hash", "updated_at").
		Updates(seller)
	if result.Error != nil {
		return translateWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the seller and every product it owns in one transaction.
func (r *GormSellerRepository) Delete(ctx context.Context, seller *models.Seller) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("seller_id = ?", seller.ID).Delete(&models.Product{}).Error; err != nil {
			return err
		}
		result := tx.Delete(seller)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEmail
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateEmail
	}
	return err
}
