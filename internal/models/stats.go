package models

import "github.com/shopspring/decimal"

type DashboardStats struct {
	TotalEvents    int             `json:"total_events"`
	TotalOrders    int             `json:"total_orders"`
	PendingOrders  int             `json:"pending_orders"`
	ApprovedOrders int             `json:"approved_orders"`
	RejectedOrders int             `json:"rejected_orders"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalTickets   int             `json:"total_tickets"`
}
