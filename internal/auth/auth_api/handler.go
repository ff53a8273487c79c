package auth_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"etickets/internal/auth"
	"etickets/internal/errs"
	"etickets/internal/logger"
	"etickets/internal/models"
	"etickets/internal/utils"
)

type Handler struct {
	AuthService *auth.AuthService
	Middleware  *auth.Middleware
	Logger      *logger.Logger
}

func NewHandler(authService *auth.AuthService, mw *auth.Middleware, logger *logger.Logger) *Handler {
	return &Handler{AuthService: authService, Middleware: mw, Logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.With(h.Middleware.Authenticate).Post("/logout", h.Logout)
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, h.Logger, "AUTH", fmt.Errorf("%w: request body must be valid JSON", errs.ErrInvalidInput))
		return
	}

	resp, err := h.AuthService.Login(r.Context(), req)
	if err != nil {
		utils.WriteError(w, h.Logger, "AUTH", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, h.Logger, "AUTH", fmt.Errorf("%w: request body must be valid JSON", errs.ErrInvalidInput))
		return
	}

	user, err := h.AuthService.Register(r.Context(), req)
	if err != nil {
		utils.WriteError(w, h.Logger, "AUTH", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.AuthService.Logout(r.Context(), auth.UserID(r.Context())); err != nil {
		utils.WriteError(w, h.Logger, "AUTH", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.MessageResponse{Message: "logged out"})
}
