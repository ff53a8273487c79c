package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

const (
	EventStatusActive   = "active"
	EventStatusInactive = "inactive"
)

func init() {
	// Prices and totals go out as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID          int64           `bun:"id,pk,autoincrement" json:"id"`
	Title       string          `bun:"title,notnull" json:"title"`
	Description string          `bun:"description" json:"description"`
	Date        string          `bun:"date,notnull" json:"date"`
	Time        string          `bun:"time,notnull" json:"time"`
	Venue       string          `bun:"venue,notnull" json:"venue"`
	Price       decimal.Decimal `bun:"price,type:decimal(10,2),notnull" json:"price"`
	Quantity    int             `bun:"quantity,notnull" json:"quantity"`
	Sold        int             `bun:"sold,notnull,default:0" json:"sold"`
	Reserved    int             `bun:"reserved,notnull,default:0" json:"reserved"`
	Image       string          `bun:"image,nullzero" json:"image,omitempty"`
	Status      string          `bun:"status,notnull,default:'active'" json:"status"`
	CreatedAt   time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// Remaining is the number of tickets that can still be ordered.
func (e *Event) Remaining() int {
	return e.Quantity - e.Sold - e.Reserved
}

// MarshalJSON adds the computed "available" field.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	return json.Marshal(struct {
		plain
		Available int `json:"available"`
	}{plain(e), e.Remaining()})
}

// EventInput carries admin create/update fields parsed from a multipart form.
type EventInput struct {
	Title       string `validate:"required,max=200"`
	Description string
	Date        string `validate:"required"`
	Time        string `validate:"required"`
	Venue       string `validate:"required,max=200"`
	Price       decimal.Decimal
	Quantity    int    `validate:"min=1"`
	Status      string `validate:"omitempty,oneof=active inactive"`
}
