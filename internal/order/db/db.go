package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"etickets/internal/database"
	"etickets/internal/errs"
	"etickets/internal/models"
)

// maxTicketAttempts bounds how often approval is rerun after a generated
// ticket number collides with an existing one.
const maxTicketAttempts = 3

type DB struct {
	Bun *bun.DB
}

// ReferenceExists reports whether an order already uses reference.
func (d *DB) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	exists, err := d.Bun.NewSelect().
		Model((*models.Order)(nil)).
		Where("reference_number = ?", reference).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check reference %s: %w", reference, err)
	}
	return exists, nil
}

// CreateOrder reserves order.Quantity units on the event and inserts the
// order in one transaction. The reservation is a single conditional UPDATE,
// so concurrent orders can never hold more than the event's capacity. The
// price guard rejects the order if the event price changed after the caller
// computed the total.
func (d *DB) CreateOrder(ctx context.Context, order *models.Order, unitPrice decimal.Decimal) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Event)(nil)).
			Set("reserved = reserved + ?", order.Quantity).
			Where("id = ?", order.EventID).
			Where("status = ?", models.EventStatusActive).
			Where("price = ?", unitPrice).
			Where("quantity - sold - reserved >= ?", order.Quantity).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("reserve tickets for event %d: %w", order.EventID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return reservationFailure(ctx, tx, order.EventID, unitPrice)
		}

		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			if database.IsUniqueViolation(err) {
				return fmt.Errorf("%w: %s", errs.ErrReferenceTaken, order.ReferenceNumber)
			}
			return fmt.Errorf("insert order %s: %w", order.ReferenceNumber, err)
		}
		return nil
	})
}

// reservationFailure explains why the conditional reservation matched no row.
func reservationFailure(ctx context.Context, tx bun.Tx, eventID int64, unitPrice decimal.Decimal) error {
	event := new(models.Event)
	err := tx.NewSelect().Model(event).Where("e.id = ?", eventID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: event %d", errs.ErrNotFound, eventID)
	}
	if err != nil {
		return fmt.Errorf("get event %d: %w", eventID, err)
	}
	switch {
	case event.Status != models.EventStatusActive:
		return fmt.Errorf("%w: event %d is not on sale", errs.ErrInvalidInput, eventID)
	case !event.Price.Equal(unitPrice):
		return fmt.Errorf("%w: the ticket price changed, please review the order", errs.ErrConflict)
	default:
		return fmt.Errorf("%w: only %d left", errs.ErrInsufficientCapacity, event.Remaining())
	}
}

// GetOrderByReference loads an order with its event and tickets.
func (d *DB) GetOrderByReference(ctx context.Context, reference string) (*models.Order, error) {
	order := new(models.Order)
	err := d.Bun.NewSelect().
		Model(order).
		Relation("Event").
		Relation("Tickets", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("t.id ASC")
		}).
		Where("o.reference_number = ?", reference).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: order %s", errs.ErrNotFound, reference)
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", reference, err)
	}
	return order, nil
}

func (d *DB) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	order := new(models.Order)
	err := d.Bun.NewSelect().
		Model(order).
		Relation("Event").
		Relation("Tickets", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("t.id ASC")
		}).
		Where("o.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: order %d", errs.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	return order, nil
}

// ListOrders returns orders newest first, optionally filtered by status.
func (d *DB) ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	q := d.Bun.NewSelect().
		Model(&orders).
		Relation("Event").
		Order("o.created_at DESC", "o.id DESC")
	if status != "" {
		q = q.Where("o.status = ?", status)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// SetPaymentProof stores path on a pending order and returns the path it
// replaced, if any.
func (d *DB) SetPaymentProof(ctx context.Context, orderID int64, path string) (string, error) {
	var previous string
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		order := new(models.Order)
		err := tx.NewSelect().Model(order).Where("o.id = ?", orderID).Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: order %d", errs.ErrNotFound, orderID)
		}
		if err != nil {
			return fmt.Errorf("get order %d: %w", orderID, err)
		}
		if order.Status != models.OrderPending {
			return fmt.Errorf("%w: order %s is %s", errs.ErrAlreadyProcessed, order.ReferenceNumber, order.Status)
		}
		previous = order.PaymentProof

		_, err = tx.NewUpdate().
			Model((*models.Order)(nil)).
			Set("payment_proof = ?", path).
			Where("id = ?", orderID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("save payment proof for order %d: %w", orderID, err)
		}
		return nil
	})
	return previous, err
}

// ApproveOrder issues the tickets, marks the order approved and moves the
// reservation into sold, all in one transaction. newTicket is called once
// per unit of quantity. A ticket number collision rolls the transaction back
// and runs it again with fresh numbers.
func (d *DB) ApproveOrder(ctx context.Context, id int64, newTicket func(orderID int64) models.Ticket) (*models.Order, error) {
	for attempt := 1; ; attempt++ {
		order, err := d.approveOrder(ctx, id, newTicket)
		if errors.Is(err, errs.ErrTicketNumberTaken) && attempt < maxTicketAttempts {
			continue
		}
		return order, err
	}
}

func (d *DB) approveOrder(ctx context.Context, id int64, newTicket func(orderID int64) models.Ticket) (*models.Order, error) {
	var approved *models.Order
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		order, err := pendingOrder(ctx, tx, id)
		if err != nil {
			return err
		}

		existing, err := tx.NewSelect().Model((*models.Ticket)(nil)).Where("order_id = ?", id).Count(ctx)
		if err != nil {
			return fmt.Errorf("count tickets for order %d: %w", id, err)
		}
		if existing > 0 {
			return fmt.Errorf("%w: order %s already has %d tickets", errs.ErrDuplicateTickets, order.ReferenceNumber, existing)
		}

		tickets := make([]models.Ticket, 0, order.Quantity)
		for i := 0; i < order.Quantity; i++ {
			tickets = append(tickets, newTicket(order.ID))
		}
		if _, err := tx.NewInsert().Model(&tickets).Exec(ctx); err != nil {
			if database.IsUniqueViolation(err) {
				return fmt.Errorf("%w: order %d", errs.ErrTicketNumberTaken, id)
			}
			return fmt.Errorf("insert tickets for order %d: %w", id, err)
		}

		now := time.Now().UTC()
		if err := transition(ctx, tx, order, models.OrderApproved, "approved_at", now); err != nil {
			return err
		}

		res, err := tx.NewUpdate().
			Model((*models.Event)(nil)).
			Set("sold = sold + ?", order.Quantity).
			Set("reserved = reserved - ?", order.Quantity).
			Where("id = ?", order.EventID).
			Where("reserved >= ?", order.Quantity).
			Where("sold + ? <= quantity", order.Quantity).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update sold for event %d: %w", order.EventID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("event %d has no reservation matching order %s", order.EventID, order.ReferenceNumber)
		}

		order.Status = models.OrderApproved
		order.ApprovedAt = &now
		order.Tickets = tickets
		if order.Event, err = eventInTx(ctx, tx, order.EventID); err != nil {
			return err
		}
		approved = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// RejectOrder marks a pending order rejected and releases its reservation.
// sold is not touched and no tickets are created.
func (d *DB) RejectOrder(ctx context.Context, id int64) (*models.Order, error) {
	var rejected *models.Order
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		order, err := pendingOrder(ctx, tx, id)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := transition(ctx, tx, order, models.OrderRejected, "rejected_at", now); err != nil {
			return err
		}

		_, err = tx.NewUpdate().
			Model((*models.Event)(nil)).
			Set("reserved = reserved - ?", order.Quantity).
			Where("id = ?", order.EventID).
			Where("reserved >= ?", order.Quantity).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("release reservation for event %d: %w", order.EventID, err)
		}

		order.Status = models.OrderRejected
		order.RejectedAt = &now
		if order.Event, err = eventInTx(ctx, tx, order.EventID); err != nil {
			return err
		}
		rejected = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

func pendingOrder(ctx context.Context, tx bun.Tx, id int64) (*models.Order, error) {
	order := new(models.Order)
	err := tx.NewSelect().Model(order).Where("o.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: order %d", errs.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	if order.Status != models.OrderPending {
		return nil, fmt.Errorf("%w: order %s is %s", errs.ErrAlreadyProcessed, order.ReferenceNumber, order.Status)
	}
	return order, nil
}

// transition moves a pending order to status. The status guard in the WHERE
// clause makes a concurrent second transition affect no rows.
func transition(ctx context.Context, tx bun.Tx, order *models.Order, status models.OrderStatus, stampColumn string, at time.Time) error {
	res, err := tx.NewUpdate().
		Model((*models.Order)(nil)).
		Set("status = ?", status).
		Set("? = ?", bun.Ident(stampColumn), at).
		Where("id = ?", order.ID).
		Where("status = ?", models.OrderPending).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set order %d %s: %w", order.ID, status, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: order %s", errs.ErrAlreadyProcessed, order.ReferenceNumber)
	}
	return nil
}

func eventInTx(ctx context.Context, tx bun.Tx, id int64) (*models.Event, error) {
	event := new(models.Event)
	if err := tx.NewSelect().Model(event).Where("e.id = ?", id).Scan(ctx); err != nil {
		return nil, fmt.Errorf("get event %d: %w", id, err)
	}
	return event, nil
}
