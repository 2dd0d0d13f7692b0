package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"

	appconfig "github.com/agrolink/agrolink_api/internal/config"
)

const (
	baseRetryDelay = 500 * time.Millisecond
	maxRetryDelay  = 5 * time.Second
	pingTimeout    = 5 * time.Second
)

// Connect opens the Postgres pool described by cfg and pings it. The API
// container usually starts before the database, so the open/ping pair is
// retried cfg.ConnectAttempts times with doubling delays.
func Connect(cfg *appconfig.DatabaseConfig) (*sqlx.DB, error) {
	if cfg == nil {
		return nil, errors.New("nil database config")
	}

	attempts := cfg.ConnectAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			time.Sleep(retryDelay(attempt - 1))
		}

		db, err := sqlx.Open("postgres", cfg.DatabaseURL())
		if err != nil {
			lastErr = err
			continue
		}
		configurePool(db.DB, cfg)

		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		lastErr = db.PingContext(ctx)
		cancel()
		if lastErr == nil {
			log.Info().
				Str("host", cfg.Host).
				Str("database", cfg.Name).
				Int("max_open_conns", cfg.MaxOpenConns).
				Msg("database connected")
			return db, nil
		}

		log.Warn().Err(lastErr).Int("attempt", attempt).Int("of", attempts).Msg("database ping failed, retrying")
		_ = db.Close()
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, lastErr)
}

func configurePool(db *sql.DB, cfg *appconfig.DatabaseConfig) {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
}

// retryDelay is the pause before retry n (1-based): 500ms doubling, capped at 5s.
func retryDelay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	d := baseRetryDelay
	for i := 1; i < n && d < maxRetryDelay; i++ {
		d *= 2
	}
	if d > maxRetryDelay {
		d = maxRetryDelay
	}
	return d
}
