package service

import (
	"context"
	"time"

	"github.com/agrolink/agrolink_api/internal/models"
	"github.com/agrolink/agrolink_api/internal/sms"
	"github.com/agrolink/agrolink_api/pkg/imagegen"
	"github.com/agrolink/agrolink_api/pkg/textbee"
)

// The interfaces below are satisfied by the repository, pkg and sse types
// and let the services run against in-memory fakes in tests.

type UserStore interface {
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	Update(ctx context.Context, u *models.User) error
}

type AttemptStore interface {
	Record(ctx context.Context, phone string, kind models.AttemptKind, at time.Time) (int64, error)
	Delete(ctx context.Context, id int64) error
	CountSince(ctx context.Context, phone string, kind models.AttemptKind, since time.Time) (int, error)
}

type ProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	SetImageURL(ctx context.Context, id, imageURL string) error
	IncrementImageAttempts(ctx context.Context, id string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, recipients []string, message string) (*textbee.SendSMSResult, error)
}

type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (*imagegen.Image, error)
}

// EventNotifier receives domain events. Implementations must not block.
type EventNotifier interface {
	NotifyProductListed(p *models.Product)
	NotifyUserRegistered(u *models.User)
}

// ImageQueue accepts product ids for background image generation.
type ImageQueue interface {
	Enqueue(productID string) bool
}

// Messenger sends a single SMS notice and reports whether it went out.
type Messenger interface {
	Send(ctx context.Context, phone, message string) bool
}

// ProductIngester stores a parsed product line for a registered farmer.
type ProductIngester interface {
	Ingest(ctx context.Context, owner *models.User, line sms.ProductLine) (*models.Product, error)
}

// FanoutNotifier forwards every event to each wrapped notifier.
type FanoutNotifier []EventNotifier

func (f FanoutNotifier) NotifyProductListed(p *models.Product) {
	for _, n := range f {
		n.NotifyProductListed(p)
	}
}

func (f FanoutNotifier) NotifyUserRegistered(u *models.User) {
	for _, n := range f {
		n.NotifyUserRegistered(u)
	}
}
