package services_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "catalog-service/common/errors"
	"catalog-service/models"
	"catalog-service/repository"
	"catalog-service/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- Mock Seller Repository ---

type mockSellerRepo struct {
	sellers map[uint]*models.Seller
	nextID  uint
	failAll error
}

func newMockSellerRepo() *mockSellerRepo {
	return &mockSellerRepo{sellers: make(map[uint]*models.Seller), nextID: 1}
}

func (m *mockSellerRepo) Create(_ context.Context, s *models.Seller) error {
	if m.failAll != nil {
		return m.failAll
	}
	for _, existing := range m.sellers {
		if existing.Email == s.Email {
			return repository.ErrDuplicateEmail
		}
	}
	s.ID = m.nextID
	m.nextID++
	cp := *s
	m.sellers[s.ID] = &cp
	return nil
}

func (m *mockSellerRepo) FindByID(_ context.Context, id uint) (*models.Seller, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	s, ok := m.sellers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockSellerRepo) FindByEmail(_ context.Context, email string) (*models.Seller, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	for _, s := range m.sellers {
		if s.Email == models.NormalizeEmail(email) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSellerRepo) List(_ context.Context, offset, limit int) ([]models.Seller, error) {
	ids := make([]int, 0, len(m.sellers))
	for id := range m.sellers {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	out := []models.Seller{}
	for i, id := range ids {
		if i < offset || len(out) >= limit {
			continue
		}
		out = append(out, *m.sellers[uint(id)])
	}
	return out, nil
}

func (m *mockSellerRepo) Update(_ context.Context, s *models.Seller) error {
	for id, existing := range m.sellers {
		if id != s.ID && existing.Email == s.Email {
			return repository.ErrDuplicateEmail
		}
	}
	if _, ok := m.sellers[s.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *s
	m.sellers[s.ID] = &cp
	return nil
}

func (m *mockSellerRepo) Delete(_ context.Context, s *models.Seller) error {
	if _, ok := m.sellers[s.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.sellers, s.ID)
	return nil
}

// --- Mock Metrics ---

type recordingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *recordingMetrics) RecordCount(_ context.Context, name string, _ map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[name]++
	return nil
}

func (r *recordingMetrics) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name]
}

// tooLongHasher fails every hash the way bcrypt does for oversized input.
type tooLongHasher struct{}

func (tooLongHasher) Hash(string) (string, error) { return "", bcrypt.ErrPasswordTooLong }
func (tooLongHasher) Verify(string, string) bool  { return false }

// --- Helpers ---

func newTestSellerService(t *testing.T, repo repository.SellerRepository) (services.SellerService, *recordingMetrics) {
	t.Helper()
	tokens, err := services.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	metrics := &recordingMetrics{}
	return services.NewSellerService(repo, services.NewBcryptHasher(bcrypt.MinCost), tokens, metrics, zap.NewNop()), metrics
}

// --- Tests ---

func TestRegister_Success(t *testing.T) {
	repo := newMockSellerRepo()
	svc, metrics := newTestSellerService(t, repo)

	seller, err := svc.Register(context.Background(), " Ana@Example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, uint(1), seller.ID)
	assert.Equal(t, "ana@example.com", seller.Email)
	assert.NotEqual(t, "secret1", seller.PasswordHash)
	assert.Eventually(t, func() bool { return metrics.count("SellersRegistered") == 1 }, time.Second, 5*time.Millisecond)
}

func TestRegister_DuplicateEmailIsConflict(t *testing.T) {
	svc, _ := newTestSellerService(t, newMockSellerRepo())

	_, err := svc.Register(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "ANA@example.com", "another1")
	assert.True(t, errors.Is(err, apperrors.ErrConflict))

	_, err = svc.Register(context.Background(), "bob@example.com", "secret1")
	assert.NoError(t, err)
}

func TestRegister_ShortPassword(t *testing.T) {
	svc, _ := newTestSellerService(t, newMockSellerRepo())

	_, err := svc.Register(context.Background(), "ana@example.com", "123")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func assertPasswordTooLong(t *testing.T, err error) {
	t.Helper()
	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr), "got %v", err)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)
	assert.Equal(t, "must be at most 72 bytes", appErr.Details["password"])
}

func TestRegister_PasswordOverBcryptLimit(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"ascii", strings.Repeat("x", 73)},
		{"multibyte under char limit", strings.Repeat("é", 40)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockSellerRepo()
			svc, _ := newTestSellerService(t, repo)

			_, err := svc.Register(context.Background(), "ana@example.com", tt.password)
			assertPasswordTooLong(t, err)
			assert.Empty(t, repo.sellers)
		})
	}

	svc, _ := newTestSellerService(t, newMockSellerRepo())
	_, err := svc.Register(context.Background(), "ana@example.com", strings.Repeat("x", 72))
	assert.NoError(t, err)
}

func TestRegister_HasherTooLongIsValidation(t *testing.T) {
	tokens, err := services.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	svc := services.NewSellerService(newMockSellerRepo(), tooLongHasher{}, tokens, nil, zap.NewNop())

	_, err = svc.Register(context.Background(), "ana@example.com", "secret1")
	assertPasswordTooLong(t, err)
}

func TestRegister_StorageFailureIsInternal(t *testing.T) {
	repo := newMockSellerRepo()
	repo.failAll = errors.New("connection refused")
	svc, _ := newTestSellerService(t, repo)

	_, err := svc.Register(context.Background(), "ana@example.com", "secret1")
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
}

func TestLogin_AndAuthenticate(t *testing.T) {
	svc, _ := newTestSellerService(t, newMockSellerRepo())
	seller, err := svc.Register(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)

	token, err := svc.Login(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)

	current, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, seller.ID, current.ID)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, _ := newTestSellerService(t, newMockSellerRepo())
	_, err := svc.Register(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "ana@example.com", "wrong-pass")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCredential))

	_, err = svc.Login(context.Background(), "nobody@example.com", "secret1")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCredential))
}

func TestAuthenticate_DeletedSellerRejected(t *testing.T) {
	svc, _ := newTestSellerService(t, newMockSellerRepo())
	seller, _ := svc.Register(context.Background(), "ana@example.com", "secret1")
	token, _ := svc.Login(context.Background(), "ana@example.com", "secret1")

	require.NoError(t, svc.Delete(context.Background(), seller, seller.ID))

	_, err := svc.Authenticate(context.Background(), token)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCredential))
}

func TestSellerSelfRoutes_ForbiddenBeforeNotFound(t *testing.T) {
	svc, _ := newTestSellerService(t, newMockSellerRepo())
	caller := &models.Seller{ID: 1}

	_, err := svc.Get(context.Background(), caller, 2)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	_, err = svc.Update(context.Background(), caller, 2, models.SellerPatch{})
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	assert.True(t, errors.Is(svc.Delete(context.Background(), caller, 2), apperrors.ErrForbidden))

	_, err = svc.Get(context.Background(), caller, 1)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestUpdateSeller(t *testing.T) {
	svc, _ := newTestSellerService(t, newMockSellerRepo())
	ana, _ := svc.Register(context.Background(), "ana@example.com", "secret1")
	_, _ = svc.Register(context.Background(), "bob@example.com", "secret1")

	updated, err := svc.Update(context.Background(), ana, ana.ID, models.SellerPatch{
		Email:    models.Some("Ana.New@example.com"),
		Password: models.Some("newsecret"),
	})
	require.NoError(t, err)
	assert.Equal(t, "ana.new@example.com", updated.Email)

	_, err = svc.Login(context.Background(), "ana.new@example.com", "newsecret")
	assert.NoError(t, err)

	_, err = svc.Update(context.Background(), ana, ana.ID, models.SellerPatch{Email: models.Some("bob@example.com")})
	assert.True(t, errors.Is(err, apperrors.ErrConflict))

	_, err = svc.Update(context.Background(), ana, ana.ID, models.SellerPatch{Email: models.Some("not-an-email")})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = svc.Update(context.Background(), ana, ana.ID, models.SellerPatch{Password: models.Some("123")})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestUpdateSeller_PasswordOverBcryptLimit(t *testing.T) {
	svc, _ := newTestSellerService(t, newMockSellerRepo())
	ana, err := svc.Register(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)

	for _, pw := range []string{strings.Repeat("x", 73), strings.Repeat("é", 40)} {
		_, err = svc.Update(context.Background(), ana, ana.ID, models.SellerPatch{Password: models.Some(pw)})
		assertPasswordTooLong(t, err)
	}

	_, err = svc.Login(context.Background(), "ana@example.com", "secret1")
	assert.NoError(t, err)
}

func TestListSellers_DefaultsLimit(t *testing.T) {
	svc, _ := newTestSellerService(t, newMockSellerRepo())
	for _, e := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := svc.Register(context.Background(), e, "secret1")
		require.NoError(t, err)
	}

	all, err := svc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := svc.List(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b@example.com", page[0].Email)
}
