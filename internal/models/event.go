package models

import "time"

// EventType names a domain event pushed to the admin dashboard and the
// message broker.
type EventType string

const (
	EventProductListed  EventType = "product.listed"
	EventUserRegistered EventType = "user.registered"
)

// ProductListedEvent is emitted after a farmer's SMS listing is stored.
type ProductListedEvent struct {
	Event       EventType `json:"event"`
	ProductID   string    `json:"productId"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	EnglishName string    `json:"englishName"`
	Quantity    int       `json:"quantity"`
	Price       float64   `json:"price"`
	Timestamp   time.Time `json:"timestamp"`
}

// UserRegisteredEvent is emitted when a phone number completes registration.
type UserRegisteredEvent struct {
	Event     EventType `json:"event"`
	UserID    string    `json:"userId"`
	Phone     string    `json:"phone"`
	Name      string    `json:"name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewProductListedEvent(p *Product) *ProductListedEvent {
	return &ProductListedEvent{
		Event:       EventProductListed,
		ProductID:   p.ID,
		UserID:      p.UserID,
		Name:        p.Name,
		EnglishName: p.EnglishName,
		Quantity:    p.Quantity,
		Price:       p.Price,
		Timestamp:   time.Now(),
	}
}

func NewUserRegisteredEvent(u *User) *UserRegisteredEvent {
	e := &UserRegisteredEvent{
		Event:     EventUserRegistered,
		UserID:    u.ID,
		Phone:     MaskPhone(u.Phone),
		Timestamp: time.Now(),
	}
	if u.Name != nil {
		e.Name = *u.Name
	}
	return e
}

// MaskPhone keeps the country prefix and last three digits.
func MaskPhone(phone string) string {
	r := []rune(phone)
	if len(r) <= 7 {
		return phone
	}
	for i := 4; i < len(r)-3; i++ {
		r[i] = '*'
	}
	return string(r)
}
