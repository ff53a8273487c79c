package analytics_api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"etickets/internal/analytics"
	"etickets/internal/logger"
	"etickets/internal/utils"
)

// Handler handles analytics HTTP endpoints
type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service *analytics.Service, logger *logger.Logger) *Handler {
	return &Handler{
		Service: service,
		Logger:  logger,
	}
}

// RegisterRoutes expects r to be behind the admin middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stats", h.GetStats)
	r.Get("/stats/events", h.GetEventSales)
	r.Get("/stats/daily", h.GetDailySales)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		utils.WriteError(w, h.Logger, "ANALYTICS", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) GetEventSales(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.EventSales(r.Context())
	if err != nil {
		utils.WriteError(w, h.Logger, "ANALYTICS", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) GetDailySales(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.DailySales(r.Context())
	if err != nil {
		utils.WriteError(w, h.Logger, "ANALYTICS", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rows)
}
