package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"etickets/internal/errs"
	"etickets/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ListActiveEvents returns events still on sale, soonest first.
func (d *DB) ListActiveEvents(ctx context.Context) ([]models.Event, error) {
	events := make([]models.Event, 0)
	err := d.Bun.NewSelect().
		Model(&events).
		Where("e.status = ?", models.EventStatusActive).
		Where("e.sold < e.quantity").
		Order("e.date ASC", "e.time ASC", "e.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active events: %w", err)
	}
	return events, nil
}

func (d *DB) ListEvents(ctx context.Context) ([]models.Event, error) {
	events := make([]models.Event, 0)
	err := d.Bun.NewSelect().
		Model(&events).
		Order("e.date ASC", "e.time ASC", "e.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (d *DB) GetEventByID(ctx context.Context, id int64) (*models.Event, error) {
	event := new(models.Event)
	err := d.Bun.NewSelect().Model(event).Where("e.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: event %d", errs.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get event %d: %w", id, err)
	}
	return event, nil
}

func (d *DB) CreateEvent(ctx context.Context, event *models.Event) error {
	if _, err := d.Bun.NewInsert().Model(event).Returning("*").Exec(ctx); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// UpdateEvent writes the editable columns. The capacity may not shrink below
// what is already sold or held by pending orders.
func (d *DB) UpdateEvent(ctx context.Context, event *models.Event) error {
	res, err := d.Bun.NewUpdate().
		Model(event).
		Column("title", "description", "date", "time", "venue", "price", "quantity", "image", "status").
		WherePK().
		Where("? >= sold + reserved", event.Quantity).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update event %d: %w", event.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		current, err := d.GetEventByID(ctx, event.ID)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: quantity cannot be lower than %d tickets already sold or reserved",
			errs.ErrInvalidInput, current.Sold+current.Reserved)
	}
	return nil
}

// DeleteEvent removes an event that no order refers to.
func (d *DB) DeleteEvent(ctx context.Context, id int64) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		orders, err := tx.NewSelect().Model((*models.Order)(nil)).Where("event_id = ?", id).Count(ctx)
		if err != nil {
			return fmt.Errorf("count orders for event %d: %w", id, err)
		}
		if orders > 0 {
			return fmt.Errorf("%w: event %d has %d orders", errs.ErrConflict, id, orders)
		}

		res, err := tx.NewDelete().Model((*models.Event)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete event %d: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: event %d", errs.ErrNotFound, id)
		}
		return nil
	})
}
