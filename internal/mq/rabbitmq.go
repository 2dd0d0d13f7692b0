// Package mq publishes domain events to RabbitMQ so downstream consumers
// (marketplace indexers, buyer notifications) can react to new listings.
package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/agrolink/agrolink_api/internal/config"
	"github.com/agrolink/agrolink_api/internal/models"
)

// channel is the subset of *amqp.Channel used for publishing.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends JSON events to a topic exchange, routed by event type.
type Publisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	ch       channel
	exchange string
	timeout  time.Duration
}

// NewPublisher dials RabbitMQ and declares the durable topic exchange.
func NewPublisher(cfg config.AMQPConfig) (*Publisher, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("amqp url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	log.Info().Str("exchange", cfg.Exchange).Msg("RabbitMQ publisher ready")
	return &Publisher{conn: conn, ch: ch, exchange: cfg.Exchange, timeout: 5 * time.Second}, nil
}

// Publish marshals payload and sends it with routing key event.
func (p *Publisher) Publish(ctx context.Context, event models.EventType, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, string(event), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now(),
		Type:         string(event),
		Body:         body,
	})
}

// NotifyProductListed publishes in the background; broker trouble never
// reaches the SMS flow.
func (p *Publisher) NotifyProductListed(prod *models.Product) {
	p.publishAsync(models.EventProductListed, models.NewProductListedEvent(prod))
}

func (p *Publisher) NotifyUserRegistered(u *models.User) {
	p.publishAsync(models.EventUserRegistered, models.NewUserRegisteredEvent(u))
}

func (p *Publisher) publishAsync(event models.EventType, payload any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.Publish(ctx, event, payload); err != nil {
			log.Error().Err(err).Str("event", string(event)).Msg("Failed to publish event")
		}
	}()
}

// Close closes the channel and connection.
func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
