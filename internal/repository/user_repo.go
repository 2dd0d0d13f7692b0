package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/agrolink/agrolink_api/internal/models"
)

const userColumns = `id, phone, name, account_number, role, status, otp_hash, otp_expires_at,
        last_registration_attempt, version, created_at, updated_at`

// UserRepository provides data access methods for the users table.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByPhone finds a user by phone number.
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.getBy(ctx, "phone = $1", phone)
}

// GetByID finds a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *UserRepository) getBy(ctx context.Context, where string, arg any) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE `+where+` LIMIT 1`, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user. The id is generated when empty.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	query := `INSERT INTO users (id, phone, name, account_number, role, status, otp_hash, otp_expires_at, last_registration_attempt)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
              RETURNING version, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		u.ID,
		u.Phone,
		u.Name,
		u.AccountNumber,
		u.Role,
		u.Status,
		u.OTPHash,
		u.OTPExpiresAt,
		u.LastRegistrationAttempt,
	).Scan(&u.Version, &u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// Update writes every mutable column, guarded by the version the caller read.
// It returns ErrConflict when another writer updated the row first.
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	query := `UPDATE users
              SET name = $1, account_number = $2, status = $3, otp_hash = $4, otp_expires_at = $5,
                  last_registration_attempt = $6, version = version + 1, updated_at = NOW()
              WHERE id = $7 AND version = $8
              RETURNING version, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		u.Name,
		u.AccountNumber,
		u.Status,
		u.OTPHash,
		u.OTPExpiresAt,
		u.LastRegistrationAttempt,
		u.ID,
		u.Version,
	).Scan(&u.Version, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrConflict
	}
	return err
}

// ListByStatus returns SMS users filtered by status (empty = all) with the total count.
func (r *UserRepository) ListByStatus(ctx context.Context, status models.UserStatus, page, limit int) ([]models.User, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	offset := (page - 1) * limit

	const where = `WHERE ($1 = '' OR status = $1)`

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) FROM users `+where, string(status)); err != nil {
		return nil, 0, err
	}

	users := []models.User{}
	query := `SELECT ` + userColumns + ` FROM users ` + where + ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &users, query, string(status), limit, offset); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
