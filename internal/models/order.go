package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderApproved OrderStatus = "approved"
	OrderRejected OrderStatus = "rejected"
)

// PaymentMethodCliQ is recorded when the customer does not name a method.
const PaymentMethodCliQ = "cliq"

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderApproved, OrderRejected:
		return true
	}
	return false
}

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID              int64           `bun:"id,pk,autoincrement" json:"id"`
	ReferenceNumber string          `bun:"reference_number,unique,notnull" json:"reference_number"`
	EventID         int64           `bun:"event_id,notnull" json:"event_id"`
	CustomerName    string          `bun:"customer_name,notnull" json:"customer_name"`
	CustomerEmail   string          `bun:"customer_email,notnull" json:"customer_email"`
	CustomerPhone   string          `bun:"customer_phone,notnull" json:"customer_phone"`
	CustomerAge     int             `bun:"customer_age" json:"customer_age"`
	Quantity        int             `bun:"quantity,notnull" json:"quantity"`
	TotalAmount     decimal.Decimal `bun:"total_amount,type:decimal(10,2),notnull" json:"total_amount"`
	PaymentMethod   string          `bun:"payment_method,notnull,default:'cliq'" json:"payment_method"`
	PaymentProof    string          `bun:"payment_proof,nullzero" json:"payment_proof,omitempty"`
	Status          OrderStatus     `bun:"status,notnull,default:'pending'" json:"status"`
	CreatedAt       time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	ApprovedAt      *time.Time      `bun:"approved_at,nullzero" json:"approved_at,omitempty"`
	RejectedAt      *time.Time      `bun:"rejected_at,nullzero" json:"rejected_at,omitempty"`

	Event   *Event   `bun:"rel:belongs-to,join:event_id=id" json:"event,omitempty"`
	Tickets []Ticket `bun:"rel:has-many,join:id=order_id" json:"tickets,omitempty"`
}

type OrderRequest struct {
	EventID       int64  `json:"event_id" validate:"required,gt=0"`
	CustomerName  string `json:"customer_name" validate:"required,max=120"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
	CustomerPhone string `json:"customer_phone" validate:"required,max=32"`
	CustomerAge   int    `json:"customer_age" validate:"required,min=1,max=120"`
	Quantity      int    `json:"quantity" validate:"required,min=1"`
	PaymentMethod string `json:"payment_method" validate:"omitempty,max=32"`
}

type OrderResponse struct {
	ReferenceNumber string          `json:"reference_number"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	CliqAlias       string          `json:"cliq_alias"`
	Status          OrderStatus     `json:"status"`
	Order           *Order          `json:"order"`
}

// OrderEvent is the payload published on the order lifecycle topics.
type OrderEvent struct {
	Type            string          `json:"type"`
	OrderID         int64           `json:"order_id"`
	ReferenceNumber string          `json:"reference_number"`
	EventID         int64           `json:"event_id"`
	Quantity        int             `json:"quantity"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          OrderStatus     `json:"status"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

func NewOrderEvent(kind string, o *Order) OrderEvent {
	return OrderEvent{
		Type:            kind,
		OrderID:         o.ID,
		ReferenceNumber: o.ReferenceNumber,
		EventID:         o.EventID,
		Quantity:        o.Quantity,
		TotalAmount:     o.TotalAmount,
		Status:          o.Status,
		OccurredAt:      time.Now().UTC(),
	}
}

// OrderTotal is price * quantity.
func OrderTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}
