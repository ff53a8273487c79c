package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"etickets/internal/errs"
	"etickets/internal/logger"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// StatusFor maps a service error onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidInput),
		errors.Is(err, errs.ErrInvalidFile),
		errors.Is(err, errs.ErrInsufficientCapacity):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthorized),
		errors.Is(err, errs.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrAlreadyProcessed),
		errors.Is(err, errs.ErrDuplicateTickets),
		errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errs.ErrTooManyRequests):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes {"error": msg}. Internal errors are logged under
// category and replaced with a generic message.
func WriteError(w http.ResponseWriter, log *logger.Logger, category string, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		if log != nil {
			log.Error(category, fmt.Sprintf("internal error: %v", err))
		}
		WriteJSON(w, status, ErrorResponse{Error: "internal server error"})
		return
	}
	WriteJSON(w, status, ErrorResponse{Error: err.Error()})
}
