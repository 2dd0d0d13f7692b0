package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrolink/agrolink_api/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestUserRepository_GetByPhone_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE phone = $1")).
		WithArgs("+251911000000").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByPhone(context.Background(), "+251911000000")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByPhone(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "phone", "name", "account_number", "role", "status", "otp_hash",
		"otp_expires_at", "last_registration_attempt", "version", "created_at", "updated_at"}).
		AddRow("u-1", "+251911000000", "Abebe", "1000123", "Farmer", "registered", nil, nil, now, 4, now, now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE phone = $1")).
		WithArgs("+251911000000").
		WillReturnRows(rows)

	u, err := repo.GetByPhone(context.Background(), "+251911000000")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, models.UserStatusRegistered, u.Status)
	assert.Equal(t, 4, u.Version)
	require.NotNil(t, u.Name)
	assert.Equal(t, "Abebe", *u.Name)
}

func TestUserRepository_Create_GeneratesID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnRows(sqlmock.NewRows([]string{"version", "created_at", "updated_at"}).AddRow(1, now, now))

	u := &models.User{Phone: "+251911000000", Role: models.RoleFarmer, Status: models.UserStatusNameAccountPending}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, 1, u.Version)
}

func TestUserRepository_Create_UniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.User{Phone: "+251911000000"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUserRepository_Update_VersionMismatch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $7 AND version = $8")).
		WillReturnError(sql.ErrNoRows)

	err := repo.Update(context.Background(), &models.User{ID: "u-1", Version: 2, Status: models.UserStatusOTPPending})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Update_BumpsVersion(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users")).
		WillReturnRows(sqlmock.NewRows([]string{"version", "updated_at"}).AddRow(3, now))

	u := &models.User{ID: "u-1", Version: 2, Status: models.UserStatusOTPPending}
	require.NoError(t, repo.Update(context.Background(), u))
	assert.Equal(t, 3, u.Version)
}

func TestAttemptRepository_RecordAndCount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttemptRepository(db)
	now := time.Now()
	since := now.Add(-24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO registration_attempts")).
		WithArgs("+251911000000", models.AttemptRegistration, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(1) FROM registration_attempts")).
		WithArgs("+251911000000", models.AttemptRegistration, since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	id, err := repo.Record(context.Background(), "+251911000000", models.AttemptRegistration, now)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	n, err := repo.CountSince(context.Background(), "+251911000000", models.AttemptRegistration, since)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttemptRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM registration_attempts WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_SetImageURL_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET image_url")).
		WithArgs("https://img/teff.png", "p-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetImageURL(context.Background(), "p-1", "https://img/teff.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductRepository_Create_DefaultsSource(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO products")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	p := &models.Product{UserID: "u-1", Name: "ጤፍ", EnglishName: "Teff", Quantity: 100, Price: 10000}
	require.NoError(t, repo.Create(context.Background(), p))
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, models.ProductSourceSMS, p.Source)
}
