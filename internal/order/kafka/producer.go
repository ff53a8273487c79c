package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"etickets/internal/config"
	"etickets/internal/models"
)

const (
	EventOrderCreated  = "order.created"
	EventOrderApproved = "order.approved"
	EventOrderRejected = "order.rejected"
)

// Publisher is satisfied by *kafka.Producer from internal/kafka.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

// Events is the full lifecycle publisher; *OrderEvents and Noop implement it.
type Events interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderApproved(ctx context.Context, order *models.Order) error
	PublishOrderRejected(ctx context.Context, order *models.Order) error
}

// OrderEvents publishes order lifecycle changes keyed by reference number.
type OrderEvents struct {
	Publisher Publisher
	Topics    config.TopicConfig
}

func NewOrderEvents(p Publisher, topics config.TopicConfig) *OrderEvents {
	return &OrderEvents{Publisher: p, Topics: topics}
}

func (o *OrderEvents) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	return o.publish(ctx, o.Topics.OrderCreated, EventOrderCreated, order)
}

func (o *OrderEvents) PublishOrderApproved(ctx context.Context, order *models.Order) error {
	return o.publish(ctx, o.Topics.OrderApproved, EventOrderApproved, order)
}

func (o *OrderEvents) PublishOrderRejected(ctx context.Context, order *models.Order) error {
	return o.publish(ctx, o.Topics.OrderRejected, EventOrderRejected, order)
}

func (o *OrderEvents) publish(ctx context.Context, topic, kind string, order *models.Order) error {
	payload, err := json.Marshal(models.NewOrderEvent(kind, order))
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", kind, err)
	}
	return o.Publisher.Publish(ctx, topic, order.ReferenceNumber, payload)
}

// Noop is used when Kafka is disabled.
type Noop struct{}

func (Noop) PublishOrderCreated(ctx context.Context, order *models.Order) error  { return nil }
func (Noop) PublishOrderApproved(ctx context.Context, order *models.Order) error { return nil }
func (Noop) PublishOrderRejected(ctx context.Context, order *models.Order) error { return nil }
