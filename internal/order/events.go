package order

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/bookstore/internal/money"
)

const RoutingKeyOrderPlaced = "order.placed"

// Publisher announces placed orders to other systems.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, order *Order) error
}

// PlacedEvent is the body of an order.placed message.
type PlacedEvent struct {
	OrderID    string       `json:"order_id"`
	IdentityID string       `json:"identity_id"`
	Total      money.Amount `json:"total"`
	ItemCount  int          `json:"item_count"`
	PlacedAt   time.Time    `json:"placed_at"`
}

func NewPlacedEvent(o *Order) PlacedEvent {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return PlacedEvent{
		OrderID:    o.ID.String(),
		IdentityID: o.IdentityID.String(),
		Total:      o.Total,
		ItemCount:  count,
		PlacedAt:   o.CreatedAt,
	}
}

type nopPublisher struct{}

// NopPublisher drops every event. Used when no broker is configured.
func NopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) PublishOrderPlaced(context.Context, *Order) error {
	return nil
}

type RabbitPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewRabbitPublisher dials the broker and declares a durable topic exchange.
func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events: failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("events: failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("events: failed to declare exchange %q: %w", exchange, err)
	}

	log.Info().Str("exchange", exchange).Msg("Connected to RabbitMQ")
	return &RabbitPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *RabbitPublisher) PublishOrderPlaced(ctx context.Context, o *Order) error {
	body, err := json.Marshal(NewPlacedEvent(o))
	if err != nil {
		return fmt.Errorf("events: failed to encode order %s: %w", o.ID, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, p.exchange, RoutingKeyOrderPlaced, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    o.ID.String(),
		Timestamp:    o.CreatedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("events: failed to publish order %s: %w", o.ID, err)
	}
	return nil
}

func (p *RabbitPublisher) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
