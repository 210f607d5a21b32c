package notify

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type EventType string

const (
	EventStockChanged       EventType = "stock_changed"
	EventProductChanged     EventType = "product_changed"
	EventOrderCreated       EventType = "order_created"
	EventOrderUpdated       EventType = "order_updated"
	EventOrderCancelled     EventType = "order_cancelled"
	EventOrderStatusChanged EventType = "order_status_changed"
)

// Event tells subscribers that an entity changed and should be re-read.
type Event struct {
	Type      EventType `json:"type"`
	EntityID  string    `json:"entityId"`
	OrderID   string    `json:"orderId,omitempty"`
	VariantID string    `json:"variantId,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher is fire-and-forget: implementations never return delivery
// failures to the caller.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type RedisPublisher struct {
	client  *goredis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisPublisher(client *goredis.Client, channel string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("failed to encode change event", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.logger.Warn("failed to publish change event",
			zap.String("type", string(event.Type)),
			zap.String("entityId", event.EntityID),
			zap.Error(err),
		)
	}
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) {}

// NewPublisher picks the Redis publisher when a client is available.
func NewPublisher(client *goredis.Client, channel string, logger *zap.Logger) Publisher {
	if client == nil {
		return NoopPublisher{}
	}
	return NewRedisPublisher(client, channel, logger)
}
