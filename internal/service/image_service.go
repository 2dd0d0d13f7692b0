package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agrolink/agrolink_api/internal/metrics"
	"github.com/agrolink/agrolink_api/internal/models"
	"github.com/agrolink/agrolink_api/internal/storage"
	"github.com/agrolink/agrolink_api/internal/utils"
	"github.com/agrolink/agrolink_api/pkg/imagegen"
)

// ImageService attaches a generated picture to a product.
type ImageService struct {
	products ProductStore
	gen      ImageGenerator
	store    storage.ObjectStorage
	metrics  *metrics.Metrics
}

// NewImageService builds the service. store may be nil, in which case only
// generators that return hosted URLs can succeed.
func NewImageService(products ProductStore, gen ImageGenerator, store storage.ObjectStorage, m *metrics.Metrics) *ImageService {
	return &ImageService{products: products, gen: gen, store: store, metrics: m}
}

// GenerateByID loads the product and generates its image unless it already
// has one.
func (s *ImageService) GenerateByID(ctx context.Context, productID string) error {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("load product %s: %w", productID, err)
	}
	if p.ImageURL != nil && *p.ImageURL != "" {
		return nil
	}
	return s.Generate(ctx, p)
}

// Generate prompts the image API with the product's English name and stores
// the result URL. Every failure bumps the product's attempt counter.
func (s *ImageService) Generate(ctx context.Context, p *models.Product) error {
	start := time.Now()
	url, err := s.generate(ctx, p)
	if err != nil {
		s.metrics.ImageJob("failed", time.Since(start).Seconds())
		if incErr := s.products.IncrementImageAttempts(context.WithoutCancel(ctx), p.ID); incErr != nil {
			log.Error().Err(incErr).Str("product_id", p.ID).Msg("Failed to record image attempt")
		}
		return err
	}

	if err := s.products.SetImageURL(ctx, p.ID, url); err != nil {
		s.metrics.ImageJob("failed", time.Since(start).Seconds())
		return fmt.Errorf("save image url: %w", err)
	}
	p.ImageURL = &url
	s.metrics.ImageJob("ok", time.Since(start).Seconds())
	log.Info().Str("product_id", p.ID).Str("image_url", url).Dur("latency", time.Since(start)).Msg("Product image generated")
	return nil
}

func (s *ImageService) generate(ctx context.Context, p *models.Product) (string, error) {
	name := p.EnglishName
	if name == "" {
		name = p.Name
	}
	img, err := s.gen.Generate(ctx, imagegen.ProductPrompt(name))
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}
	if img.URL != "" {
		return img.URL, nil
	}
	if s.store == nil {
		return "", utils.ErrStorageDisabled
	}
	url, err := s.store.Put(ctx, storage.ProductImageKey(p.ID, img.ContentType), img.Data, img.ContentType)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return url, nil
}
