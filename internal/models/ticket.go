package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	TicketValid = "valid"
	TicketUsed  = "used"
	TicketVoid  = "void"
)

type Ticket struct {
	bun.BaseModel `bun:"table:tickets,alias:t"`

	ID           int64      `bun:"id,pk,autoincrement" json:"id"`
	OrderID      int64      `bun:"order_id,notnull" json:"order_id"`
	TicketNumber string     `bun:"ticket_number,unique,notnull" json:"ticket_number"`
	QRPayload    string     `bun:"qr_payload,notnull" json:"qr_payload"`
	Status       string     `bun:"status,notnull,default:'valid'" json:"status"`
	CreatedAt    time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UsedAt       *time.Time `bun:"used_at,nullzero" json:"used_at,omitempty"`

	Order *Order `bun:"rel:belongs-to,join:order_id=id" json:"order,omitempty"`
}

// TicketVerification is the public view returned when a QR code is scanned.
type TicketVerification struct {
	TicketNumber string     `json:"ticket_number"`
	Status       string     `json:"status"`
	Valid        bool       `json:"valid"`
	HolderName   string     `json:"holder_name"`
	EventTitle   string     `json:"event_title"`
	EventDate    string     `json:"event_date"`
	EventTime    string     `json:"event_time"`
	Venue        string     `json:"venue"`
	UsedAt       *time.Time `json:"used_at,omitempty"`
}
