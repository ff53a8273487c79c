package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etickets/internal/config"
	"etickets/internal/models"
)

type published struct {
	topic, key string
	value      []byte
}

type fakePublisher struct {
	sent []published
}

func (f *fakePublisher) Publish(ctx context.Context, topic, key string, value []byte) error {
	f.sent = append(f.sent, published{topic, key, value})
	return nil
}

func TestOrderEventsRouteToTopics(t *testing.T) {
	pub := &fakePublisher{}
	events := NewOrderEvents(pub, config.TopicConfig{
		OrderCreated:  "created",
		OrderApproved: "approved",
		OrderRejected: "rejected",
	})
	order := &models.Order{
		ID:              4,
		ReferenceNumber: "ORD-K2K2K2K2",
		EventID:         9,
		Quantity:        2,
		TotalAmount:     decimal.RequireFromString("40"),
		Status:          models.OrderApproved,
	}
	ctx := context.Background()

	require.NoError(t, events.PublishOrderCreated(ctx, order))
	require.NoError(t, events.PublishOrderApproved(ctx, order))
	require.NoError(t, events.PublishOrderRejected(ctx, order))

	require.Len(t, pub.sent, 3)
	assert.Equal(t, []string{"created", "approved", "rejected"},
		[]string{pub.sent[0].topic, pub.sent[1].topic, pub.sent[2].topic})

	var msg models.OrderEvent
	require.NoError(t, json.Unmarshal(pub.sent[1].value, &msg))
	assert.Equal(t, EventOrderApproved, msg.Type)
	assert.Equal(t, "ORD-K2K2K2K2", pub.sent[1].key)
	assert.Equal(t, int64(9), msg.EventID)
	assert.True(t, msg.TotalAmount.Equal(decimal.NewFromInt(40)))
}
