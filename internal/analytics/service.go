package analytics

import (
	"context"

	"github.com/shopspring/decimal"

	"etickets/internal/models"
)

type DBLayer interface {
	GetDashboardStats(ctx context.Context) (*models.DashboardStats, error)
	GetEventSales(ctx context.Context) ([]EventSalesData, error)
	GetDailySales(ctx context.Context) ([]DailySalesData, error)
}

// Service handles analytics operations
type Service struct {
	db DBLayer
}

// NewService creates a new analytics service
func NewService(db DBLayer) *Service {
	return &Service{db: db}
}

// EventSales is the per-event row of the admin sales report.
type EventSales struct {
	EventID       int64           `json:"event_id"`
	Title         string          `json:"title"`
	Date          string          `json:"date"`
	Quantity      int             `json:"quantity"`
	Sold          int             `json:"sold"`
	Reserved      int             `json:"reserved"`
	Available     int             `json:"available"`
	Revenue       decimal.Decimal `json:"revenue"`
	PendingOrders int             `json:"pending_orders"`
}

// DailySalesMetrics contains metrics for a single day
type DailySalesMetrics struct {
	Date        string          `json:"date"`
	Revenue     decimal.Decimal `json:"revenue"`
	Orders      int             `json:"orders"`
	TicketsSold int             `json:"tickets_sold"`
}

// Stats returns the dashboard counters.
func (s *Service) Stats(ctx context.Context) (*models.DashboardStats, error) {
	return s.db.GetDashboardStats(ctx)
}

func (s *Service) EventSales(ctx context.Context) ([]EventSales, error) {
	rows, err := s.db.GetEventSales(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]EventSales, 0, len(rows))
	for _, r := range rows {
		out = append(out, EventSales{
			EventID:       r.EventID,
			Title:         r.Title,
			Date:          r.Date,
			Quantity:      r.Quantity,
			Sold:          r.Sold,
			Reserved:      r.Reserved,
			Available:     r.Quantity - r.Sold - r.Reserved,
			Revenue:       r.Revenue,
			PendingOrders: r.PendingOrders,
		})
	}
	return out, nil
}

func (s *Service) DailySales(ctx context.Context) ([]DailySalesMetrics, error) {
	rows, err := s.db.GetDailySales(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DailySalesMetrics, 0, len(rows))
	for _, r := range rows {
		day := r.SalesDate
		// Postgres returns a timestamp-formatted date; keep YYYY-MM-DD.
		if len(day) > 10 {
			day = day[:10]
		}
		out = append(out, DailySalesMetrics{
			Date:        day,
			Revenue:     r.DailyRevenue,
			Orders:      r.DailyOrders,
			TicketsSold: r.DailyQuantity,
		})
	}
	return out, nil
}
