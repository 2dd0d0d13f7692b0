package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// AttemptPurger deletes attempt log rows older than cutoff.
type AttemptPurger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PurgeWorker trims the registration attempt log. Rows older than the
// limiter window can no longer affect a decision.
type PurgeWorker struct {
	attempts  AttemptPurger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

func NewPurgeWorker(attempts AttemptPurger, interval, retention time.Duration) *PurgeWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &PurgeWorker{attempts: attempts, interval: interval, retention: retention, now: time.Now}
}

func (w *PurgeWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Dur("retention", w.retention).Msg("Starting attempt purge worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Attempt purge worker stopped")
			return
		}
	}
}

func (w *PurgeWorker) run(ctx context.Context) {
	n, err := w.attempts.PurgeBefore(ctx, w.now().Add(-w.retention))
	if err != nil {
		log.Error().Err(err).Msg("Failed to purge registration attempts")
		return
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("Purged registration attempts")
	}
}
