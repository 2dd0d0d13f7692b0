package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/agrolink/agrolink_api/internal/models"
)

const productColumns = `p.id, p.user_id, p.name, p.english_name, p.quantity, p.price, p.image_url,
        p.image_attempts, p.source, p.created_at, p.updated_at`

// ProductRepository handles data access for farmer listings.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a listing. The id is generated when empty.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Source == "" {
		p.Source = models.ProductSourceSMS
	}
	query := `INSERT INTO products (id, user_id, name, english_name, quantity, price, image_url, source)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
              RETURNING created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		p.ID,
		p.UserID,
		p.Name,
		p.EnglishName,
		p.Quantity,
		p.Price,
		p.ImageURL,
		p.Source,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// GetByID returns a listing with its farmer's name and phone.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	query := `SELECT ` + productColumns + `, u.name AS farmer_name, u.phone AS farmer_phone
        FROM products p JOIN users u ON u.id = p.user_id
        WHERE p.id = $1`

	var p models.Product
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns listings newest first with optional search (ILIKE on both names)
// and pagination, plus the total count. Page begins at 1.
func (r *ProductRepository) List(ctx context.Context, search string, page, limit int) ([]models.Product, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	offset := (page - 1) * limit

	const baseWhere = `WHERE ($1 = '' OR p.name ILIKE '%' || $1 || '%' OR p.english_name ILIKE '%' || $1 || '%')`

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) FROM products p `+baseWhere, search); err != nil {
		return nil, 0, err
	}

	listQuery := `SELECT ` + productColumns + `, u.name AS farmer_name, u.phone AS farmer_phone
        FROM products p JOIN users u ON u.id = p.user_id ` + baseWhere + `
        ORDER BY p.created_at DESC LIMIT $2 OFFSET $3`

	products := []models.Product{}
	if err := r.db.SelectContext(ctx, &products, listQuery, search, limit, offset); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListMissingImages returns listings still waiting for an illustrative image.
func (r *ProductRepository) ListMissingImages(ctx context.Context, maxAttempts, limit int) ([]models.Product, error) {
	query := `SELECT ` + productColumns + `
        FROM products p
        WHERE p.image_url IS NULL AND p.image_attempts < $1
        ORDER BY p.created_at
        LIMIT $2`

	products := []models.Product{}
	if err := r.db.SelectContext(ctx, &products, query, maxAttempts, limit); err != nil {
		return nil, err
	}
	return products, nil
}

// SetImageURL stores the generated image location.
func (r *ProductRepository) SetImageURL(ctx context.Context, id, imageURL string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET image_url = $1, updated_at = NOW() WHERE id = $2`, imageURL, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementImageAttempts records a failed generation attempt.
func (r *ProductRepository) IncrementImageAttempts(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE products SET image_attempts = image_attempts + 1, updated_at = NOW() WHERE id = $1`, id)
	return err
}
