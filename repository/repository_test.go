package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"catalog-service/models"
	"catalog-service/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })
	return gormDB, mock
}

var productColumns = []string{"id", "seller_id", "name", "price", "description", "marketing_description", "image_url", "created_at", "updated_at"}

func TestSellerCreate_NormalizesEmail(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormSellerRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "sellers"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	seller := &models.Seller{Email: "  Ana@Example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), seller))
	assert.Equal(t, uint(1), seller.ID)
	assert.Equal(t, "ana@example.com", seller.Email)
}

func TestSellerCreate_DuplicateEmail(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormSellerRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "sellers"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Seller{Email: "ana@example.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestSellerFindByEmail_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormSellerRepository(gormDB)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "sellers" WHERE email = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at", "updated_at"}).
			AddRow(3, "ana@example.com", "hash", now, now))

	seller, err := repo.FindByEmail(context.Background(), "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, uint(3), seller.ID)
}

func TestSellerFindByID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormSellerRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "sellers"`)).
		WillReturnRows(sqlmock.NewRows([]string{}))

	seller, err := repo.FindByID(context.Background(), 42)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Nil(t, seller)
}

func TestSellerList(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormSellerRepository(gormDB)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "sellers" ORDER BY id ASC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at", "updated_at"}).
			AddRow(1, "a@example.com", "h", now, now).
			AddRow(2, "b@example.com", "h", now, now))

	sellers, err := repo.List(context.Background(), 0, 100)
	require.NoError(t, err)
	assert.Len(t, sellers, 2)
}

func TestSellerDelete_CascadesProducts(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormSellerRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "products" WHERE seller_id = $1`)).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "sellers"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, repo.Delete(context.Background(), &models.Seller{ID: 5}))
}

func TestSellerDelete_RollsBackOnFailure(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormSellerRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "products"`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	assert.Error(t, repo.Delete(context.Background(), &models.Seller{ID: 5}))
}

func TestProductCreate(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormProductRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "products"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectCommit()

	p := &models.Product{SellerID: 1, Name: "Lamp", Price: 19.99}
	require.NoError(t, repo.Create(context.Background(), p))
	assert.Equal(t, uint(10), p.ID)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestProductFindByOwnerAndID(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormProductRepository(gormDB)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE id = $1 AND seller_id = $2`)).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(10, 1, "Lamp", 19.99, nil, "copy", "https://placehold.co/1024x1024/png", now, now))

	p, err := repo.FindByOwnerAndID(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", p.Name)
	assert.Nil(t, p.Description)
	require.NotNil(t, p.MarketingDescription)
	assert.Equal(t, "copy", *p.MarketingDescription)
}

func TestProductFindByOwnerAndID_ForeignOwnerIsNotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormProductRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE id = $1 AND seller_id = $2`)).
		WillReturnRows(sqlmock.NewRows(productColumns))

	p, err := repo.FindByOwnerAndID(context.Background(), 2, 10)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Nil(t, p)
}

func TestProductListByOwner_NewestFirst(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormProductRepository(gormDB)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE seller_id = $1 ORDER BY id DESC`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(12, 1, "Desk", 99.0, nil, nil, nil, now, now).
			AddRow(10, 1, "Lamp", 19.99, nil, nil, nil, now, now))

	products, err := repo.ListByOwner(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, uint(12), products[0].ID)
}

func TestProductListByOwner_EmptyIsNotNil(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormProductRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products"`)).
		WillReturnRows(sqlmock.NewRows(productColumns))

	products, err := repo.ListByOwner(context.Background(), 9)
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestProductUpdate(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormProductRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	created := time.Now().Add(-time.Hour)
	p := &models.Product{ID: 10, SellerID: 1, Name: "Lamp", Price: 25, CreatedAt: created, UpdatedAt: created}
	require.NoError(t, repo.Update(context.Background(), p))
	assert.True(t, p.UpdatedAt.After(created))
}

func TestProductUpdate_NoRowsIsNotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormProductRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), &models.Product{ID: 10, SellerID: 2, Name: "Lamp"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProductDelete(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormProductRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "products" WHERE seller_id = $1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, repo.Delete(context.Background(), &models.Product{ID: 10, SellerID: 1}))
}
