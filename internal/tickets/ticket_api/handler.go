package ticket_api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"etickets/internal/logger"
	tickets "etickets/internal/tickets/service"
	"etickets/internal/utils"
)

type Handler struct {
	TicketService *tickets.TicketService
	Logger        *logger.Logger
}

func NewHandler(ticketService *tickets.TicketService, logger *logger.Logger) *Handler {
	return &Handler{TicketService: ticketService, Logger: logger}
}

// RegisterPublicRoutes mounts the QR verification link.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/verify/{ticketNumber}", h.VerifyTicket)
}

// RegisterAdminRoutes expects r to be behind the admin middleware.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/tickets", h.ListTickets)
	r.Post("/tickets/{ticketNumber}/checkin", h.CheckinTicket)
}

func (h *Handler) VerifyTicket(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "ticketNumber")

	result, err := h.TicketService.VerifyTicket(r.Context(), number)
	if err != nil {
		utils.WriteError(w, h.Logger, "TICKET", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	list, err := h.TicketService.ListTickets(r.Context())
	if err != nil {
		utils.WriteError(w, h.Logger, "TICKET", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) CheckinTicket(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "ticketNumber")

	result, err := h.TicketService.CheckIn(r.Context(), number)
	if err != nil {
		utils.WriteError(w, h.Logger, "TICKET", err)
		return
	}
	h.Logger.Info("TICKET", fmt.Sprintf("Ticket %s checked in", number))
	utils.WriteJSON(w, http.StatusOK, result)
}
