package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etickets/internal/config"
	"etickets/internal/errs"
	"etickets/internal/models"
)

func TestDecodeRoundTripsPublishedEvent(t *testing.T) {
	pub := &fakePublisher{}
	events := NewOrderEvents(pub, config.TopicConfig{OrderApproved: "approved"})
	order := &models.Order{ID: 11, ReferenceNumber: "ORD-AUD1TAUD", EventID: 3, Quantity: 2, Status: models.OrderApproved}
	require.NoError(t, events.PublishOrderApproved(context.Background(), order))
	require.Len(t, pub.sent, 1)

	got, err := DecodeOrderEvent(pub.sent[0].value)
	require.NoError(t, err)
	assert.Equal(t, EventOrderApproved, got.Type)
	assert.Equal(t, "ORD-AUD1TAUD", got.ReferenceNumber)
	assert.Equal(t, 2, got.Quantity)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := DecodeOrderEvent([]byte("not json"))
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = DecodeOrderEvent([]byte(`{"type":"order.shipped","reference_number":"ORD-X"}`))
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = DecodeOrderEvent([]byte(`{"type":"order.created"}`))
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}
