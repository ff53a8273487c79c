package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"etickets/internal/errs"
	"etickets/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// GetTicketByNumber loads a ticket with its order and event.
func (d *DB) GetTicketByNumber(ctx context.Context, number string) (*models.Ticket, error) {
	ticket := new(models.Ticket)
	err := d.Bun.NewSelect().
		Model(ticket).
		Relation("Order").
		Relation("Order.Event").
		Where("t.ticket_number = ?", number).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: ticket %s", errs.ErrNotFound, number)
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket %s: %w", number, err)
	}
	return ticket, nil
}

func (d *DB) GetTicketsByOrder(ctx context.Context, orderID int64) ([]models.Ticket, error) {
	tickets := make([]models.Ticket, 0)
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("t.order_id = ?", orderID).
		Order("t.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tickets for order %d: %w", orderID, err)
	}
	return tickets, nil
}

// ListTickets returns tickets newest first with order and event attached.
func (d *DB) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	tickets := make([]models.Ticket, 0)
	err := d.Bun.NewSelect().
		Model(&tickets).
		Relation("Order").
		Relation("Order.Event").
		Order("t.created_at DESC", "t.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return tickets, nil
}

// MarkUsed moves a valid ticket to used. Anything else is AlreadyProcessed.
func (d *DB) MarkUsed(ctx context.Context, number string, at time.Time) (*models.Ticket, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("status = ?", models.TicketUsed).
		Set("used_at = ?", at).
		Where("ticket_number = ?", number).
		Where("status = ?", models.TicketValid).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("check in ticket %s: %w", number, err)
	}

	ticket, err := d.GetTicketByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ticket, fmt.Errorf("%w: ticket %s is %s", errs.ErrAlreadyProcessed, number, ticket.Status)
	}
	return ticket, nil
}
