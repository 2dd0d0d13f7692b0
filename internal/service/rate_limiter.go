package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agrolink/agrolink_api/internal/metrics"
	"github.com/agrolink/agrolink_api/internal/models"
)

// Limit caps attempts of one kind per phone within a sliding window.
type Limit struct {
	Max    int
	Window time.Duration
}

// RateLimiter gates registration starts and OTP resends per phone number
// using the append-only attempt log.
type RateLimiter struct {
	attempts AttemptStore
	limits   map[models.AttemptKind]Limit
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewRateLimiter(attempts AttemptStore, registration, otpResend Limit, m *metrics.Metrics) *RateLimiter {
	return &RateLimiter{
		attempts: attempts,
		limits: map[models.AttemptKind]Limit{
			models.AttemptRegistration: registration,
			models.AttemptOTPResend:    otpResend,
		},
		metrics: m,
		now:     time.Now,
	}
}

// Allow records an attempt and then counts attempts inside the window, the
// new one included. The attempt is allowed iff that count is within the
// limit, so concurrent callers always consume distinct slots. A denied
// attempt is withdrawn again: only granted attempts occupy the window.
func (r *RateLimiter) Allow(ctx context.Context, phone string, kind models.AttemptKind) (bool, int, error) {
	limit, ok := r.limits[kind]
	if !ok {
		return false, 0, fmt.Errorf("no limit configured for %q", kind)
	}

	now := r.now()
	id, err := r.attempts.Record(ctx, phone, kind, now)
	if err != nil {
		return false, 0, fmt.Errorf("record attempt: %w", err)
	}
	count, err := r.attempts.CountSince(ctx, phone, kind, now.Add(-limit.Window))
	if err != nil {
		return false, 0, fmt.Errorf("count attempts: %w", err)
	}

	allowed := count <= limit.Max
	if !allowed {
		if err := r.attempts.Delete(ctx, id); err != nil {
			log.Warn().Err(err).Str("phone", phone).Int64("attempt_id", id).Msg("Failed to withdraw denied attempt")
		}
		r.metrics.RateLimited(string(kind))
		log.Info().
			Str("phone", phone).
			Str("kind", string(kind)).
			Int("count", count).
			Int("limit", limit.Max).
			Msg("Attempt limit reached")
	}
	return allowed, count, nil
}
