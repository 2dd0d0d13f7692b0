package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agrolink/agrolink_api/internal/models"
)

// ImageJobRunner generates the image for one product.
type ImageJobRunner interface {
	GenerateByID(ctx context.Context, productID string) error
}

// MissingImageLister finds products still waiting for an image.
type MissingImageLister interface {
	ListMissingImages(ctx context.Context, maxAttempts, limit int) ([]models.Product, error)
}

// ImageWorker generates product images off the request path. New listings
// arrive through Enqueue; a periodic sweep picks up anything that was
// dropped or failed, until the product runs out of attempts.
type ImageWorker struct {
	runner      ImageJobRunner
	lister      MissingImageLister
	queue       chan string
	interval    time.Duration
	maxAttempts int
	batchSize   int
	jobTimeout  time.Duration
}

func NewImageWorker(runner ImageJobRunner, lister MissingImageLister, interval time.Duration, maxAttempts, queueSize int, jobTimeout time.Duration) *ImageWorker {
	if queueSize <= 0 {
		queueSize = 256
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if jobTimeout <= 0 {
		jobTimeout = 30 * time.Second
	}
	return &ImageWorker{
		runner:      runner,
		lister:      lister,
		queue:       make(chan string, queueSize),
		interval:    interval,
		maxAttempts: maxAttempts,
		batchSize:   50,
		jobTimeout:  jobTimeout,
	}
}

// Enqueue schedules productID without blocking. It returns false when the
// queue is full.
func (w *ImageWorker) Enqueue(productID string) bool {
	select {
	case w.queue <- productID:
		return true
	default:
		return false
	}
}

// Start consumes the queue and runs the backfill sweep until ctx is done.
func (w *ImageWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Int("max_attempts", w.maxAttempts).Msg("Starting image worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case id := <-w.queue:
			w.process(ctx, id)
		case <-ticker.C:
			w.backfill(ctx)
		case <-ctx.Done():
			log.Info().Msg("Image worker stopped")
			return
		}
	}
}

func (w *ImageWorker) process(ctx context.Context, productID string) {
	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	if err := w.runner.GenerateByID(jobCtx, productID); err != nil {
		log.Warn().Err(err).Str("product_id", productID).Msg("Image generation failed")
	}
}

func (w *ImageWorker) backfill(ctx context.Context) {
	products, err := w.lister.ListMissingImages(ctx, w.maxAttempts, w.batchSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products missing images")
		return
	}
	if len(products) == 0 {
		return
	}

	log.Info().Int("count", len(products)).Msg("Backfilling product images")
	for _, p := range products {
		if ctx.Err() != nil {
			return
		}
		w.process(ctx, p.ID)
	}
}
