package admin_api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"etickets/internal/admin"
	"etickets/internal/errs"
	"etickets/internal/logger"
	"etickets/internal/models"
	"etickets/internal/sse"
	"etickets/internal/uploads"
	"etickets/internal/utils"
)

type Handler struct {
	AdminService   *admin.AdminService
	Feed           *sse.OrderFeed
	Logger         *logger.Logger
	MaxUploadBytes int64
}

func NewHandler(adminService *admin.AdminService, feed *sse.OrderFeed, maxUploadBytes int64, logger *logger.Logger) *Handler {
	return &Handler{
		AdminService:   adminService,
		Feed:           feed,
		Logger:         logger,
		MaxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes expects r to be behind the admin middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Get("/stream", h.StreamOrders)
		r.Get("/{id}", h.GetOrder)
		r.Post("/{id}/approve", h.ApproveOrder)
		r.Post("/{id}/reject", h.RejectOrder)
	})
	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Post("/", h.CreateEvent)
		r.Put("/{id}", h.UpdateEvent)
		r.Delete("/{id}", h.DeleteEvent)
	})
}

// ---------------- ORDERS ----------------

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := models.OrderStatus(strings.ToLower(r.URL.Query().Get("status")))

	orders, err := h.AdminService.ListOrders(r.Context(), status)
	if err != nil {
		utils.WriteError(w, h.Logger, "ADMIN", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, h.Logger, "ADMIN", err)
		return
	}
	order, err := h.AdminService.GetOrder(r.Context(), id)
	if err != nil {
		utils.WriteError(w, h.Logger, "ADMIN", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

func (h *Handler) ApproveOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, h.Logger, "ADMIN", err)
		return
	}
	order, err := h.AdminService.ApproveOrder(r.Context(), id)
	if err != nil {
		utils.WriteError(w, h.Logger, "ADMIN", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("order approved, %d tickets issued", len(order.Tickets)),
		"order":   order,
	})
}

func (h *Handler) RejectOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, h.Logger, "ADMIN", err)
		return
	}
	order, err := h.AdminService.RejectOrder(r.Context(), id)
	if err != nil {
		utils.WriteError(w, h.Logger, "ADMIN", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "order rejected",
		"order":   order,
	})
}

// ---------------- EVENTS ----------------

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.AdminService.ListEvents(r.Context())
	if err != nil {
		utils.WriteError(w, h.Logger, "ADMIN", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	input, image, cleanup, err := h.parseEventForm(w, r)
	if err != nil {
		utils.WriteError(w, h.Logger, "ADMIN", err)
		return
	}
	defer cleanup()

	event, err := h.AdminService.CreateEvent(r.Context(), input, image)
	if err != nil {
		utils.WriteError(w, h.Logger, "ADMIN", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, event)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, h.Logger, "ADMIN", err)
		return
	}
	input, image, cleanup, err := h.parseEventForm(w, r)
	if err != nil {
		utils.WriteError(w, h.Logger, "ADMIN", err)
		return
	}
	defer cleanup()

	event, err := h.AdminService.UpdateEvent(r.Context(), id, input, image)
	if err != nil {
		utils.WriteError(w, h.Logger, "ADMIN", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, event)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, h.Logger, "ADMIN", err)
		return
	}
	if err := h.AdminService.DeleteEvent(r.Context(), id); err != nil {
		utils.WriteError(w, h.Logger, "ADMIN", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "event deleted"})
}

// parseEventForm reads the event fields and the optional image from a
// multipart or urlencoded form. cleanup closes the image and removes any
// temporary files.
func (h *Handler) parseEventForm(w http.ResponseWriter, r *http.Request) (models.EventInput, *uploads.File, func(), error) {
	noop := func() {}
	var input models.EventInput

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+1<<20)
		if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				return input, nil, noop, fmt.Errorf("%w: image is larger than %d bytes", errs.ErrInvalidFile, h.MaxUploadBytes)
			}
			return input, nil, noop, fmt.Errorf("%w: malformed multipart form", errs.ErrInvalidInput)
		}
	} else if err := r.ParseForm(); err != nil {
		return input, nil, noop, fmt.Errorf("%w: malformed form", errs.ErrInvalidInput)
	}

	input = models.EventInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Date:        r.FormValue("date"),
		Time:        r.FormValue("time"),
		Venue:       r.FormValue("venue"),
		Status:      strings.ToLower(strings.TrimSpace(r.FormValue("status"))),
	}

	price, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("price")))
	if err != nil {
		return input, nil, noop, fmt.Errorf("%w: price must be a number", errs.ErrInvalidInput)
	}
	input.Price = price

	if input.Quantity, err = strconv.Atoi(strings.TrimSpace(r.FormValue("quantity"))); err != nil {
		return input, nil, noop, fmt.Errorf("%w: quantity must be a whole number", errs.ErrInvalidInput)
	}

	cleanup := func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}
	if !utils.HasFormFile(r, "image") {
		return input, nil, cleanup, nil
	}

	file, header, err := utils.FormFile(r, "image")
	if err != nil {
		cleanup()
		return input, nil, noop, err
	}
	image := &uploads.File{Filename: header.Filename, Size: header.Size, Body: file}
	return input, image, func() {
		file.Close()
		cleanup()
	}, nil
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errs.ErrInvalidInput, chi.URLParam(r, "id"))
	}
	return id, nil
}
