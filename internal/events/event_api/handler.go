package event_api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"etickets/internal/errs"
	"etickets/internal/events"
	"etickets/internal/logger"
	"etickets/internal/utils"
)

type Handler struct {
	Catalog *events.CatalogService
	Logger  *logger.Logger
}

func NewHandler(catalog *events.CatalogService, logger *logger.Logger) *Handler {
	return &Handler{Catalog: catalog, Logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/events", h.ListEvents)
	r.Get("/api/events/{id}", h.GetEvent)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	list, err := h.Catalog.ListActiveEvents(r.Context())
	if err != nil {
		utils.WriteError(w, h.Logger, "EVENTS", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.WriteError(w, h.Logger, "EVENTS", fmt.Errorf("%w: event id must be a number", errs.ErrInvalidInput))
		return
	}

	event, err := h.Catalog.GetEvent(r.Context(), id)
	if err != nil {
		utils.WriteError(w, h.Logger, "EVENTS", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, event)
}
