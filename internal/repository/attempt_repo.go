package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/agrolink/agrolink_api/internal/models"
)

// AttemptRepository is the append-only log behind registration rate limiting.
type AttemptRepository struct {
	db *sqlx.DB
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(db *sqlx.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Record appends one attempt and returns its id.
func (r *AttemptRepository) Record(ctx context.Context, phone string, kind models.AttemptKind, at time.Time) (int64, error) {
	var id int64
	err := r.db.GetContext(ctx, &id,
		`INSERT INTO registration_attempts (phone, kind, created_at) VALUES ($1, $2, $3) RETURNING id`,
		phone, kind, at)
	return id, err
}

// Delete removes one attempt, used to withdraw an attempt that was denied.
func (r *AttemptRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM registration_attempts WHERE id = $1`, id)
	return err
}

// CountSince counts attempts of kind for phone at or after since.
func (r *AttemptRepository) CountSince(ctx context.Context, phone string, kind models.AttemptKind, since time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(1) FROM registration_attempts WHERE phone = $1 AND kind = $2 AND created_at >= $3`,
		phone, kind, since)
	return n, err
}

// PurgeBefore deletes attempts older than cutoff and returns how many went away.
func (r *AttemptRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM registration_attempts WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
