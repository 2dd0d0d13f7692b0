package service

import (
	"context"
	"errors"

	"github.com/agrolink/agrolink_api/internal/models"
	"github.com/agrolink/agrolink_api/internal/repository"
	"github.com/agrolink/agrolink_api/internal/utils"
)

// ProductCatalog is the read side of product listings.
type ProductCatalog interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context, search string, page, limit int) ([]models.Product, int, error)
}

// ProductService serves the public product catalogue.
type ProductService struct {
	catalog ProductCatalog
}

func NewProductService(catalog ProductCatalog) *ProductService {
	return &ProductService{catalog: catalog}
}

// List returns one page of products, newest first, optionally filtered by
// a case-insensitive name search.
func (s *ProductService) List(ctx context.Context, search string, page, limit int) ([]models.Product, int, error) {
	page, limit = utils.NormalizePage(page, limit)
	items, total, err := s.catalog.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []models.Product{}
	}
	return items, total, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.catalog.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, utils.ErrProductNotFound
	}
	return p, err
}
