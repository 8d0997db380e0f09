package services

import (
	"context"
	"errors"

	apperrors "catalog-service/common/errors"
	"catalog-service/common/logger"
	"catalog-service/models"
	aws_pkg "catalog-service/pkg/aws"
	"catalog-service/repository"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minPasswordLength = 6
	// bcrypt rejects longer input.
	maxPasswordBytes = 72
)

var validate = validator.New()

// TokenIssuer is the part of TokenService the seller flows need.
type TokenIssuer interface {
	IssueToken(email string, sellerID uint) (string, error)
	VerifyToken(token string) (*Identity, error)
}

// SellerService covers registration, login, token authentication and the
// self-service account operations.
type SellerService interface {
	Register(ctx context.Context, email, password string) (*models.Seller, error)
	Login(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, token string) (*models.Seller, error)

	Get(ctx context.Context, caller *models.Seller, id uint) (*models.Seller, error)
	List(ctx context.Context, offset, limit int) ([]models.Seller, error)
	Update(ctx context.Context, caller *models.Seller, id uint, patch models.SellerPatch) (*models.Seller, error)
	Delete(ctx context.Context, caller *models.Seller, id uint) error
}

type sellerServiceImpl struct {
	repo    repository.SellerRepository
	hasher  PasswordHasher
	tokens  TokenIssuer
	logger  *zap.Logger
	metrics MetricsRecorder
}

// NewSellerService creates a new SellerService.
func NewSellerService(repo repository.SellerRepository, hasher PasswordHasher, tokens TokenIssuer, metrics MetricsRecorder, logger *zap.Logger) SellerService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &sellerServiceImpl{
		repo:    repo,
		hasher:  hasher,
		tokens:  tokens,
		logger:  logger,
		metrics: metrics,
	}
}

// Register hashes the password and stores a new seller. A taken email is a
// Conflict.
func (s *sellerServiceImpl) Register(ctx context.Context, email, password string) (*models.Seller, error) {
	email = models.NormalizeEmail(email)
	if problem := passwordProblem(password); problem != "" {
		return nil, apperrors.Validation("Invalid request", map[string]string{"password": problem})
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, apperrors.Conflict("El email ya está registrado", nil)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, s.internal(ctx, "lookup seller by email", err)
	}

	hash, err := s.hashPassword(ctx, password)
	if err != nil {
		return nil, err
	}

	seller := &models.Seller{Email: email, PasswordHash: hash}
	if err := s.repo.Create(ctx, seller); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.Conflict("El email ya está registrado", err)
		}
		return nil, s.internal(ctx, "create seller", err)
	}

	s.logger.Info("Seller registered", zap.Uint("seller_id", seller.ID))
	recordAsync(s.metrics, s.logger, aws_pkg.MetricSellersRegistered)
	return seller, nil
}

// Login verifies the credentials and issues an access token. Unknown email
// and wrong password are indistinguishable.
func (s *sellerServiceImpl) Login(ctx context.Context, email, password string) (string, error) {
	seller, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.InvalidCredential("Credenciales inválidas", nil)
		}
		return "", s.internal(ctx, "lookup seller by email", err)
	}
	if !s.hasher.Verify(password, seller.PasswordHash) {
		return "", apperrors.InvalidCredential("Credenciales inválidas", nil)
	}

	token, err := s.tokens.IssueToken(seller.Email, seller.ID)
	if err != nil {
		return "", s.internal(ctx, "issue token", err)
	}
	return token, nil
}

// Authenticate resolves a bearer token to a live seller. Tokens of deleted
// sellers are rejected.
func (s *sellerServiceImpl) Authenticate(ctx context.Context, token string) (*models.Seller, error) {
	identity, err := s.tokens.VerifyToken(token)
	if err != nil {
		return nil, err
	}
	seller, err := s.repo.FindByID(ctx, identity.SellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.InvalidCredential("Could not validate credentials", err)
		}
		return nil, s.internal(ctx, "load authenticated seller", err)
	}
	return seller, nil
}

func (s *sellerServiceImpl) Get(ctx context.Context, caller *models.Seller, id uint) (*models.Seller, error) {
	if caller.ID != id {
		return nil, apperrors.Forbidden("Solo puedes consultar tu propio perfil")
	}
	return s.find(ctx, id)
}

func (s *sellerServiceImpl) List(ctx context.Context, offset, limit int) ([]models.Seller, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 100
	}
	sellers, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, s.internal(ctx, "list sellers", err)
	}
	return sellers, nil
}

// Update applies the patch field by field. Null fields are left untouched.
func (s *sellerServiceImpl) Update(ctx context.Context, caller *models.Seller, id uint, patch models.SellerPatch) (*models.Seller, error) {
	if caller.ID != id {
		return nil, apperrors.Forbidden("Solo puedes actualizar tu propio perfil")
	}
	seller, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	details := map[string]string{}
	if patch.Email.Present() {
		email := models.NormalizeEmail(patch.Email.Value)
		if err := validate.Var(email, "required,email,max=255"); err != nil {
			details["email"] = "must be a valid email address"
		}
		seller.Email = email
	}
	if patch.Password.Present() {
		if problem := passwordProblem(patch.Password.Value); problem != "" {
			details["password"] = problem
		} else {
			hash, err := s.hashPassword(ctx, patch.Password.Value)
			if err != nil {
				return nil, err
			}
			seller.PasswordHash = hash
		}
	}
	if len(details) > 0 {
		return nil, apperrors.Validation("Invalid request", details)
	}

	if err := s.repo.Update(ctx, seller); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, apperrors.Conflict("El email ya está registrado", err)
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperrors.NotFound("Vendedor no encontrado")
		default:
			return nil, s.internal(ctx, "update seller", err)
		}
	}
	return seller, nil
}

// Delete removes the caller's account and all of its products.
func (s *sellerServiceImpl) Delete(ctx context.Context, caller *models.Seller, id uint) error {
	if caller.ID != id {
		return apperrors.Forbidden("Solo puedes eliminar tu propia cuenta")
	}
	seller, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, seller); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Vendedor no encontrado")
		}
		return s.internal(ctx, "delete seller", err)
	}
	s.logger.Info("Seller deleted", zap.Uint("seller_id", id))
	return nil
}

func (s *sellerServiceImpl) find(ctx context.Context, id uint) (*models.Seller, error) {
	seller, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Vendedor no encontrado")
		}
		return nil, s.internal(ctx, "find seller", err)
	}
	return seller, nil
}

// passwordProblem returns the validation detail for password, or "" when it
// is acceptable. Limits are in bytes, which is what bcrypt measures.
func passwordProblem(password string) string {
	switch {
	case len(password) < minPasswordLength:
		return "must be at least 6 characters"
	case len(password) > maxPasswordBytes:
		return "must be at most 72 bytes"
	}
	return ""
}

func (s *sellerServiceImpl) hashPassword(ctx context.Context, password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperrors.Validation("Invalid request", map[string]string{"password": "must be at most 72 bytes"})
		}
		return "", s.internal(ctx, "hash password", err)
	}
	return hash, nil
}

func (s *sellerServiceImpl) internal(ctx context.Context, op string, err error) error {
	logger.For(ctx, s.logger).Error("Seller operation failed", zap.String("op", op), zap.Error(err))
	return apperrors.Internal(err)
}
