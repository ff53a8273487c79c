package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"etickets/internal/database/dbtest"
	"etickets/internal/errs"
	"etickets/internal/models"
	"etickets/internal/tickets/db"
)

func seedTicket(t *testing.T, bunDB *bun.DB, number string) *models.Ticket {
	t.Helper()
	ctx := context.Background()

	event := dbtest.SeedEvent(t, bunDB, "20", 10, 1)
	order := &models.Order{
		ReferenceNumber: "ORD-" + number[len(number)-8:],
		EventID:         event.ID,
		CustomerName:    "Rami",
		CustomerEmail:   "rami@example.com",
		CustomerPhone:   "0781111111",
		Quantity:        1,
		TotalAmount:     event.Price,
		Status:          models.OrderApproved,
	}
	_, err := bunDB.NewInsert().Model(order).Exec(ctx)
	require.NoError(t, err)

	ticket := &models.Ticket{
		OrderID:      order.ID,
		TicketNumber: number,
		QRPayload:    "http://localhost/verify/" + number,
		Status:       models.TicketValid,
		CreatedAt:    time.Now().UTC(),
	}
	_, err = bunDB.NewInsert().Model(ticket).Exec(ctx)
	require.NoError(t, err)
	return ticket
}

func TestGetTicketByNumberLoadsOrderAndEvent(t *testing.T) {
	bunDB := dbtest.New(t)
	store := &db.DB{Bun: bunDB}
	seedTicket(t, bunDB, "TKT-AAAABBBBCCCC")

	ticket, err := store.GetTicketByNumber(context.Background(), "TKT-AAAABBBBCCCC")
	require.NoError(t, err)
	require.NotNil(t, ticket.Order)
	require.NotNil(t, ticket.Order.Event)
	assert.Equal(t, "Rami", ticket.Order.CustomerName)
	assert.Equal(t, "Wadi Rum", ticket.Order.Event.Venue)

	_, err = store.GetTicketByNumber(context.Background(), "TKT-MISSING")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestMarkUsedOnlyOnce(t *testing.T) {
	bunDB := dbtest.New(t)
	store := &db.DB{Bun: bunDB}
	seedTicket(t, bunDB, "TKT-111122223333")
	ctx := context.Background()

	ticket, err := store.MarkUsed(ctx, "TKT-111122223333", time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, models.TicketUsed, ticket.Status)
	assert.NotNil(t, ticket.UsedAt)

	_, err = store.MarkUsed(ctx, "TKT-111122223333", time.Now().UTC())
	assert.ErrorIs(t, err, errs.ErrAlreadyProcessed)

	_, err = store.MarkUsed(ctx, "TKT-NOPE", time.Now().UTC())
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestListTicketsAndByOrder(t *testing.T) {
	bunDB := dbtest.New(t)
	store := &db.DB{Bun: bunDB}
	first := seedTicket(t, bunDB, "TKT-000000000001")
	seedTicket(t, bunDB, "TKT-000000000002")

	all, err := store.ListTickets(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, tk := range all {
		require.NotNil(t, tk.Order)
	}

	byOrder, err := store.GetTicketsByOrder(context.Background(), first.OrderID)
	require.NoError(t, err)
	require.Len(t, byOrder, 1)
	assert.Equal(t, first.TicketNumber, byOrder[0].TicketNumber)
}
