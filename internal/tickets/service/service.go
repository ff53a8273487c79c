package tickets

import (
	"context"
	"time"

	"etickets/internal/models"
)

type TicketDBLayer interface {
	GetTicketByNumber(ctx context.Context, number string) (*models.Ticket, error)
	GetTicketsByOrder(ctx context.Context, orderID int64) ([]models.Ticket, error)
	ListTickets(ctx context.Context) ([]models.Ticket, error)
	MarkUsed(ctx context.Context, number string, at time.Time) (*models.Ticket, error)
}

// PayloadBuilder produces the QR payload for a ticket number.
type PayloadBuilder interface {
	Payload(ticketNumber string) string
}

type TicketService struct {
	DB     TicketDBLayer
	QR     PayloadBuilder
	Number func() string
}

func NewTicketService(db TicketDBLayer, qr PayloadBuilder) *TicketService {
	return &TicketService{DB: db, QR: qr, Number: GenerateTicketNumber}
}

// NewTicket builds an unsaved ticket for orderID. It is called once per unit
// inside the approval transaction.
func (s *TicketService) NewTicket(orderID int64) models.Ticket {
	number := s.Number()
	return models.Ticket{
		OrderID:      orderID,
		TicketNumber: number,
		QRPayload:    s.QR.Payload(number),
		Status:       models.TicketValid,
		CreatedAt:    time.Now().UTC(),
	}
}

// VerifyTicket is the public lookup behind the QR link.
func (s *TicketService) VerifyTicket(ctx context.Context, number string) (*models.TicketVerification, error) {
	ticket, err := s.DB.GetTicketByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return verification(ticket), nil
}

func (s *TicketService) CheckIn(ctx context.Context, number string) (*models.TicketVerification, error) {
	ticket, err := s.DB.MarkUsed(ctx, number, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return verification(ticket), nil
}

func (s *TicketService) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	return s.DB.ListTickets(ctx)
}

func (s *TicketService) TicketsForOrder(ctx context.Context, orderID int64) ([]models.Ticket, error) {
	return s.DB.GetTicketsByOrder(ctx, orderID)
}

func verification(t *models.Ticket) *models.TicketVerification {
	v := &models.TicketVerification{
		TicketNumber: t.TicketNumber,
		Status:       t.Status,
		Valid:        t.Status == models.TicketValid,
		UsedAt:       t.UsedAt,
	}
	if t.Order != nil {
		v.HolderName = t.Order.CustomerName
		if t.Order.Event != nil {
			v.EventTitle = t.Order.Event.Title
			v.EventDate = t.Order.Event.Date
			v.EventTime = t.Order.Event.Time
			v.Venue = t.Order.Event.Venue
		}
	}
	return v
}
