package order_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"etickets/internal/errs"
	"etickets/internal/logger"
	"etickets/internal/models"
	"etickets/internal/order"
	"etickets/internal/uploads"
	"etickets/internal/utils"
)

// Proof uploads are read from the first of these form fields that is present.
var proofFields = []string{"payment_proof", "paymentProof", "file"}

type Handler struct {
	OrderService *order.OrderService
	Logger       *logger.Logger
	// MaxUploadBytes caps the multipart body; the upload store enforces the
	// per-file limit.
	MaxUploadBytes int64
}

func NewHandler(orderService *order.OrderService, maxUploadBytes int64, logger *logger.Logger) *Handler {
	return &Handler{
		OrderService:   orderService,
		Logger:         logger,
		MaxUploadBytes: maxUploadBytes,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/{reference}", h.GetOrder)
		r.Post("/{reference}/proof", h.UploadPaymentProof)
	})
}

// CreateOrder accepts a JSON body, or a multipart form carrying the same
// fields and optionally the payment proof.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		h.createOrderFromForm(w, r)
		return
	}

	var req models.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CreateOrder: failed to decode request body: %v", err))
		utils.WriteError(w, h.Logger, "ORDER", fmt.Errorf("%w: request body must be valid JSON", errs.ErrInvalidInput))
		return
	}

	response, err := h.OrderService.CreateOrder(r.Context(), req)
	if err != nil {
		utils.WriteError(w, h.Logger, "ORDER", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, response)
}

func (h *Handler) createOrderFromForm(w http.ResponseWriter, r *http.Request) {
	if !h.parseUpload(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	req, err := orderRequestFromForm(r)
	if err != nil {
		utils.WriteError(w, h.Logger, "ORDER", err)
		return
	}

	var proof *uploads.File
	if utils.HasFormFile(r, proofFields...) {
		file, header, err := utils.FormFile(r, proofFields...)
		if err != nil {
			utils.WriteError(w, h.Logger, "UPLOAD", err)
			return
		}
		defer file.Close()
		proof = &uploads.File{Filename: header.Filename, Size: header.Size, Body: file}
	}

	response, err := h.OrderService.CreateOrderWithProof(r.Context(), req, proof)
	if err != nil {
		utils.WriteError(w, h.Logger, "ORDER", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, response)
}

func orderRequestFromForm(r *http.Request) (models.OrderRequest, error) {
	req := models.OrderRequest{
		CustomerName:  r.FormValue("customer_name"),
		CustomerEmail: r.FormValue("customer_email"),
		CustomerPhone: r.FormValue("customer_phone"),
		PaymentMethod: r.FormValue("payment_method"),
	}
	ints := []struct {
		field string
		dst   *int
	}{
		{"customer_age", &req.CustomerAge},
		{"quantity", &req.Quantity},
	}
	for _, f := range ints {
		raw := strings.TrimSpace(r.FormValue(f.field))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("%w: %s must be a whole number", errs.ErrInvalidInput, f.field)
		}
		*f.dst = n
	}
	if raw := strings.TrimSpace(r.FormValue("event_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return req, fmt.Errorf("%w: event_id must be a whole number", errs.ErrInvalidInput)
		}
		req.EventID = id
	}
	return req, nil
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	orderData, err := h.OrderService.GetOrderByReference(r.Context(), reference)
	if err != nil {
		utils.WriteError(w, h.Logger, "ORDER", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orderData)
}

func (h *Handler) UploadPaymentProof(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	if !h.parseUpload(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := utils.FormFile(r, proofFields...)
	if err != nil {
		utils.WriteError(w, h.Logger, "UPLOAD", err)
		return
	}
	defer file.Close()

	updated, err := h.OrderService.AttachPaymentProof(r.Context(), reference, header.Filename, header.Size, file)
	if err != nil {
		utils.WriteError(w, h.Logger, "UPLOAD", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "payment proof uploaded",
		"payment_proof": updated.PaymentProof,
		"order":         updated,
	})
}

// parseUpload reads a multipart body of at most one maximum-size file and
// writes the error response itself when it cannot.
func (h *Handler) parseUpload(w http.ResponseWriter, r *http.Request) bool {
	// Leave room for the multipart envelope around a maximum-size file.
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			utils.WriteError(w, h.Logger, "UPLOAD", fmt.Errorf("%w: file is larger than %d bytes", errs.ErrInvalidFile, h.MaxUploadBytes))
			return false
		}
		utils.WriteError(w, h.Logger, "UPLOAD", fmt.Errorf("%w: expected a multipart form", errs.ErrInvalidInput))
		return false
	}
	return true
}
