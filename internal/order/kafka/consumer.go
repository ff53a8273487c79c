package kafka

import (
	"encoding/json"
	"fmt"

	"etickets/internal/errs"
	"etickets/internal/models"
)

// DecodeOrderEvent parses a message value written by OrderEvents.
func DecodeOrderEvent(value []byte) (models.OrderEvent, error) {
	var event models.OrderEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return event, fmt.Errorf("%w: decode order event: %v", errs.ErrInvalidInput, err)
	}
	switch event.Type {
	case EventOrderCreated, EventOrderApproved, EventOrderRejected:
	default:
		return event, fmt.Errorf("%w: unknown order event type %q", errs.ErrInvalidInput, event.Type)
	}
	if event.ReferenceNumber == "" {
		return event, fmt.Errorf("%w: order event without reference", errs.ErrInvalidInput)
	}
	return event, nil
}
