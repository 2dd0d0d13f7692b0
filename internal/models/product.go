package models

import "time"

// ProductSource records where a listing came from.
type ProductSource string

const (
	ProductSourceSMS ProductSource = "sms"
	ProductSourceWeb ProductSource = "web"
)

// Product is a listing posted by a farmer. Quantity is in kilograms and
// price in Ethiopian Birr.
type Product struct {
	ID            string        `db:"id" json:"id"`
	UserID        string        `db:"user_id" json:"userId"`
	Name          string        `db:"name" json:"name"`
	EnglishName   string        `db:"english_name" json:"englishName"`
	Quantity      int           `db:"quantity" json:"quantity"`
	Price         float64       `db:"price" json:"price"`
	ImageURL      *string       `db:"image_url" json:"imageUrl"`
	ImageAttempts int           `db:"image_attempts" json:"-"`
	Source        ProductSource `db:"source" json:"source"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updatedAt"`

	// Populated by listing queries joining users.
	FarmerName  *string `db:"farmer_name" json:"farmerName,omitempty"`
	FarmerPhone *string `db:"farmer_phone" json:"farmerPhone,omitempty"`
}
