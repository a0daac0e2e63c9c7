// internal/handlers/auth.go
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
	"github.com/ammerola/bi-dashboard/internal/handlers/middleware"
)

// AuthHandler handles account and token endpoints
type AuthHandler struct {
	auth   ports.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth ports.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger.With(slog.String("handler", "auth")),
	}
}

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=admin viewer"`
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the body of POST /api/auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// UpdateDetailsRequest is the body of PUT /api/auth/updatedetails
type UpdateDetailsRequest struct {
	Name  string `json:"name" validate:"required,notblank"`
	Email string `json:"email" validate:"required,email"`
}

// UpdatePasswordRequest is the body of PUT /api/auth/updatepassword
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// AuthResponse is returned whenever tokens are issued
type AuthResponse struct {
	User             *domain.User `json:"user"`
	Token            string       `json:"token"`
	RefreshToken     string       `json:"refreshToken"`
	ExpiresAt        time.Time    `json:"expiresAt"`
	RefreshExpiresAt time.Time    `json:"refreshExpiresAt"`
}

func newAuthResponse(res *domain.AuthResult) AuthResponse {
	return AuthResponse{
		User:             res.User,
		Token:            res.Tokens.AccessToken,
		RefreshToken:     res.Tokens.RefreshToken,
		ExpiresAt:        res.Tokens.AccessTokenExpiresAt,
		RefreshExpiresAt: res.Tokens.RefreshTokenExpiresAt,
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if msgs := decodeAndValidate(w, r, &req); len(msgs) > 0 {
		respondValidation(w, msgs)
		return
	}

	res, err := h.auth.Register(r.Context(), domain.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		respondServiceError(r.Context(), h.logger, w, err, "Error registering user")
		return
	}

	h.logger.InfoContext(r.Context(), "user registered",
		slog.String("user_id", res.User.ID.String()),
		slog.String("role", string(res.User.Role)))
	respondData(w, http.StatusCreated, newAuthResponse(res))
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if msgs := decodeAndValidate(w, r, &req); len(msgs) > 0 {
		respondValidation(w, msgs)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(r.Context(), h.logger, w, err, "Error logging in")
		return
	}
	respondData(w, http.StatusOK, newAuthResponse(res))
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if msgs := decodeAndValidate(w, r, &req); len(msgs) > 0 {
		respondValidation(w, msgs)
		return
	}

	res, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(r.Context(), h.logger, w, err, "Error refreshing token")
		return
	}
	respondData(w, http.StatusOK, newAuthResponse(res))
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}

	if err := h.auth.Logout(r.Context(), claims); err != nil {
		respondServiceError(r.Context(), h.logger, w, err, "Error logging out")
		return
	}
	respondData(w, http.StatusOK, map[string]string{})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	respondData(w, http.StatusOK, user)
}

// UpdateDetails handles PUT /api/auth/updatedetails
func (h *AuthHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}

	var req UpdateDetailsRequest
	if msgs := decodeAndValidate(w, r, &req); len(msgs) > 0 {
		respondValidation(w, msgs)
		return
	}

	updated, err := h.auth.UpdateDetails(r.Context(), user.ID, req.Name, req.Email)
	if err != nil {
		respondServiceError(r.Context(), h.logger, w, err, "Error updating details")
		return
	}
	respondData(w, http.StatusOK, updated)
}

// UpdatePassword handles PUT /api/auth/updatepassword
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}

	var req UpdatePasswordRequest
	if msgs := decodeAndValidate(w, r, &req); len(msgs) > 0 {
		respondValidation(w, msgs)
		return
	}

	res, err := h.auth.UpdatePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondServiceError(r.Context(), h.logger, w, err, "Error updating password")
		return
	}
	respondData(w, http.StatusOK, newAuthResponse(res))
}
