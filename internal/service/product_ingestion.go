package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/agrolink/agrolink_api/internal/metrics"
	"github.com/agrolink/agrolink_api/internal/models"
	"github.com/agrolink/agrolink_api/internal/sms"
	"github.com/agrolink/agrolink_api/internal/utils"
)

// ProductIngestion turns a parsed SMS product line into a stored listing.
type ProductIngestion struct {
	products ProductStore
	events   EventNotifier
	images   ImageQueue
	metrics  *metrics.Metrics
}

func NewProductIngestion(products ProductStore, events EventNotifier, images ImageQueue, m *metrics.Metrics) *ProductIngestion {
	return &ProductIngestion{products: products, events: events, images: images, metrics: m}
}

// Ingest stores the listing, announces it and queues image generation.
// Only the insert can fail the call.
func (p *ProductIngestion) Ingest(ctx context.Context, owner *models.User, line sms.ProductLine) (*models.Product, error) {
	name := strings.TrimSpace(line.Name)
	if name == "" || line.Quantity <= 0 || line.Price <= 0 ||
		line.Quantity > sms.MaxQuantity || line.Price > sms.MaxPrice {
		return nil, utils.ErrInvalidProduct
	}
	english, known := sms.EnglishCropName(name)

	product := &models.Product{
		UserID:      owner.ID,
		Name:        name,
		EnglishName: english,
		Quantity:    line.Quantity,
		Price:       line.Price,
		Source:      models.ProductSourceSMS,
	}
	if err := p.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	p.metrics.ProductListed()
	p.events.NotifyProductListed(product)
	if !p.images.Enqueue(product.ID) {
		log.Warn().Str("product_id", product.ID).Msg("Image queue full, leaving product to backfill")
	}

	log.Info().
		Str("product_id", product.ID).
		Str("user_id", owner.ID).
		Str("name", name).
		Str("english_name", english).
		Bool("known_crop", known).
		Int("quantity", line.Quantity).
		Float64("price", line.Price).
		Msg("Product listed")
	return product, nil
}
