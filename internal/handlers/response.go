// internal/handlers/response.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
)

// Envelope is the uniform JSON wrapper of every endpoint
type Envelope struct {
	Success    bool             `json:"success"`
	Data       interface{}      `json:"data,omitempty"`
	Pagination *domain.PageInfo `json:"pagination,omitempty"`
	Message    string           `json:"message,omitempty"`
	Errors     []string         `json:"errors,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, Envelope{Success: true, Data: data})
}

func respondPage(w http.ResponseWriter, data interface{}, page domain.PageInfo) {
	respondJSON(w, http.StatusOK, Envelope{Success: true, Data: data, Pagination: &page})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, Envelope{Success: false, Message: message})
}

func respondValidation(w http.ResponseWriter, msgs []string) {
	respondJSON(w, http.StatusBadRequest, Envelope{Success: false, Message: "Validation failed", Errors: msgs})
}

// respondServiceError maps domain errors onto status codes. Anything
// unrecognised is logged and reported as a generic 500 with fallback.
func respondServiceError(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		msgs := domain.ValidationMessages(err)
		if len(msgs) == 0 {
			msgs = []string{err.Error()}
		}
		respondValidation(w, msgs)
	case errors.Is(err, domain.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, domain.ErrExpiredToken),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrInvalidTokenType),
		errors.Is(err, domain.ErrTokenRevoked):
		respondError(w, http.StatusUnauthorized, "Not authorized to access this route")
	case errors.Is(err, domain.ErrForbidden):
		respondError(w, http.StatusForbidden, forbiddenMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, domain.ErrDuplicate):
		respondError(w, http.StatusConflict, "Resource already exists")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "Request timeout")
	default:
		logger.ErrorContext(ctx, fallback, slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, fallback)
	}
}

// forbiddenMessage surfaces the reason wrapped around domain.ErrForbidden
func forbiddenMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), domain.ErrForbidden.Error()+": ")
	if msg == domain.ErrForbidden.Error() {
		return "Not authorized to access this route"
	}
	return msg
}
