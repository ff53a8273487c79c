package analytics

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"etickets/internal/models"
)

// DB handles analytics database operations
type DB struct {
	bun *bun.DB
}

// NewDB creates a new analytics DB handler
func NewDB(db *bun.DB) *DB {
	return &DB{bun: db}
}

// GetDashboardStats aggregates the admin dashboard counters in one round trip.
func (db *DB) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	stats := new(models.DashboardStats)
	err := db.bun.NewRaw(`
		SELECT
			(SELECT COUNT(*) FROM events) AS total_events,
			(SELECT COUNT(*) FROM orders) AS total_orders,
			(SELECT COUNT(*) FROM orders WHERE status = ?) AS pending_orders,
			(SELECT COUNT(*) FROM orders WHERE status = ?) AS approved_orders,
			(SELECT COUNT(*) FROM orders WHERE status = ?) AS rejected_orders,
			(SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status = ?) AS total_revenue,
			(SELECT COUNT(*) FROM tickets) AS total_tickets`,
		models.OrderPending, models.OrderApproved, models.OrderRejected, models.OrderApproved,
	).Scan(ctx, stats)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return stats, nil
}

// EventSalesData is one row of the per-event breakdown.
type EventSalesData struct {
	EventID       int64           `bun:"event_id"`
	Title         string          `bun:"title"`
	Date          string          `bun:"date"`
	Quantity      int             `bun:"quantity"`
	Sold          int             `bun:"sold"`
	Reserved      int             `bun:"reserved"`
	Revenue       decimal.Decimal `bun:"revenue"`
	PendingOrders int             `bun:"pending_orders"`
}

// GetEventSales lists every event with its approved revenue and open orders.
func (db *DB) GetEventSales(ctx context.Context) ([]EventSalesData, error) {
	var rows []EventSalesData
	err := db.bun.NewRaw(`
		SELECT
			e.id AS event_id,
			e.title,
			e.date,
			e.quantity,
			e.sold,
			e.reserved,
			COALESCE(SUM(CASE WHEN o.status = ? THEN o.total_amount END), 0) AS revenue,
			COUNT(CASE WHEN o.status = ? THEN 1 END) AS pending_orders
		FROM
			events e
		LEFT JOIN
			orders o ON o.event_id = e.id
		GROUP BY
			e.id, e.title, e.date, e.quantity, e.sold, e.reserved
		ORDER BY
			e.date ASC, e.id ASC`,
		models.OrderApproved, models.OrderPending,
	).Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("event sales: %w", err)
	}
	return rows, nil
}

// DailySalesData represents raw daily sales metrics from the database
type DailySalesData struct {
	SalesDate     string          `bun:"sales_date"`
	DailyRevenue  decimal.Decimal `bun:"daily_revenue"`
	DailyOrders   int             `bun:"daily_orders"`
	DailyQuantity int             `bun:"daily_quantity"`
}

// GetDailySales groups approved orders by approval day.
func (db *DB) GetDailySales(ctx context.Context) ([]DailySalesData, error) {
	var rows []DailySalesData
	err := db.bun.NewRaw(`
		SELECT
			DATE(o.approved_at) AS sales_date,
			COALESCE(SUM(o.total_amount), 0) AS daily_revenue,
			COUNT(*) AS daily_orders,
			COALESCE(SUM(o.quantity), 0) AS daily_quantity
		FROM
			orders o
		WHERE
			o.status = ? AND o.approved_at IS NOT NULL
		GROUP BY
			DATE(o.approved_at)
		ORDER BY
			sales_date ASC`,
		models.OrderApproved,
	).Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("daily sales: %w", err)
	}
	return rows, nil
}
