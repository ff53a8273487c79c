package tickets_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"etickets/internal/errs"
	"etickets/internal/models"
	qr "etickets/internal/tickets/qr_genrator"
	tickets "etickets/internal/tickets/service"
)

type MockTicketDB struct {
	mock.Mock
}

func (m *MockTicketDB) GetTicketByNumber(ctx context.Context, number string) (*models.Ticket, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTicketDB) GetTicketsByOrder(ctx context.Context, orderID int64) ([]models.Ticket, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockTicketDB) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockTicketDB) MarkUsed(ctx context.Context, number string, at time.Time) (*models.Ticket, error) {
	args := m.Called(ctx, number, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func TestGenerateTicketNumberIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		n := tickets.GenerateTicketNumber()
		require.True(t, strings.HasPrefix(n, "TKT-"))
		require.Len(t, n, 16)
		require.False(t, seen[n], "duplicate ticket number %s", n)
		seen[n] = true
	}
}

func TestNewTicketCarriesVerificationPayload(t *testing.T) {
	svc := tickets.NewTicketService(new(MockTicketDB), qr.NewQRGenerator("https://etickets.jo"))
	svc.Number = func() string { return "TKT-FIXED" }

	ticket := svc.NewTicket(42)

	assert.Equal(t, int64(42), ticket.OrderID)
	assert.Equal(t, "TKT-FIXED", ticket.TicketNumber)
	assert.Equal(t, "https://etickets.jo/verify/TKT-FIXED", ticket.QRPayload)
	assert.Equal(t, models.TicketValid, ticket.Status)
}

func TestVerifyTicket(t *testing.T) {
	db := new(MockTicketDB)
	svc := tickets.NewTicketService(db, qr.NewQRGenerator("https://etickets.jo"))

	db.On("GetTicketByNumber", mock.Anything, "TKT-1").Return(&models.Ticket{
		TicketNumber: "TKT-1",
		Status:       models.TicketValid,
		Order: &models.Order{
			CustomerName: "Sara",
			Event:        &models.Event{Title: "Petra by Night", Date: "2025-09-01", Time: "20:30", Venue: "Petra"},
		},
	}, nil)
	db.On("GetTicketByNumber", mock.Anything, "TKT-404").Return(nil, errs.ErrNotFound)

	v, err := svc.VerifyTicket(context.Background(), "TKT-1")
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.Equal(t, "Sara", v.HolderName)
	assert.Equal(t, "Petra by Night", v.EventTitle)

	_, err = svc.VerifyTicket(context.Background(), "TKT-404")
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestCheckInPropagatesAlreadyProcessed(t *testing.T) {
	db := new(MockTicketDB)
	svc := tickets.NewTicketService(db, qr.NewQRGenerator("https://etickets.jo"))

	db.On("MarkUsed", mock.Anything, "TKT-1", mock.AnythingOfType("time.Time")).
		Return(&models.Ticket{TicketNumber: "TKT-1", Status: models.TicketUsed}, errs.ErrAlreadyProcessed)

	_, err := svc.CheckIn(context.Background(), "TKT-1")
	assert.ErrorIs(t, err, errs.ErrAlreadyProcessed)
	db.AssertExpectations(t)
}
