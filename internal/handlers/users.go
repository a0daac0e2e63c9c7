// internal/handlers/users.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
	"github.com/ammerola/bi-dashboard/internal/handlers/middleware"
)

// UsersHandler serves administrator account management
type UsersHandler struct {
	users  ports.UserService
	logger *slog.Logger
}

// NewUsersHandler creates a new users handler
func NewUsersHandler(users ports.UserService, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{
		users:  users,
		logger: logger.With(slog.String("handler", "users")),
	}
}

// CreateUserRequest is the body of POST /api/users
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=admin viewer"`
}

// UpdateUserRequest is the body of PUT /api/users/{id}. Absent fields are
// left unchanged.
type UpdateUserRequest struct {
	Name  *string `json:"name" validate:"omitempty,notblank"`
	Email *string `json:"email" validate:"omitempty,email"`
	Role  *string `json:"role" validate:"omitempty,oneof=admin viewer"`
}

// List handles GET /api/users
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	page, msgs := parsePagination(r.URL.Query())
	if len(msgs) > 0 {
		respondValidation(w, msgs)
		return
	}

	users, info, err := h.users.List(r.Context(), page)
	if err != nil {
		respondServiceError(r.Context(), h.logger, w, err, "Error fetching users")
		return
	}
	if users == nil {
		users = []*domain.User{}
	}
	respondPage(w, users, info)
}

// Create handles POST /api/users
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if msgs := decodeAndValidate(w, r, &req); len(msgs) > 0 {
		respondValidation(w, msgs)
		return
	}

	user, err := h.users.Create(r.Context(), domain.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		respondServiceError(r.Context(), h.logger, w, err, "Error creating user")
		return
	}

	h.logger.InfoContext(r.Context(), "user created",
		slog.String("user_id", user.ID.String()),
		slog.String("role", string(user.Role)))
	respondData(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{id}
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		respondServiceError(r.Context(), h.logger, w, err, "Error fetching user")
		return
	}
	respondData(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{id}
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if msgs := decodeAndValidate(w, r, &req); len(msgs) > 0 {
		respondValidation(w, msgs)
		return
	}

	input := domain.UpdateUserInput{Name: req.Name, Email: req.Email}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		input.Role = &role
	}

	user, err := h.users.Update(r.Context(), id, input)
	if err != nil {
		respondServiceError(r.Context(), h.logger, w, err, "Error updating user")
		return
	}
	respondData(w, http.StatusOK, user)
}

// Delete handles DELETE /api/users/{id}
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}

	if err := h.users.Delete(r.Context(), actor.ID, id); err != nil {
		respondServiceError(r.Context(), h.logger, w, err, "Error deleting user")
		return
	}

	h.logger.InfoContext(r.Context(), "user deleted", slog.String("deleted_user_id", id.String()))
	respondData(w, http.StatusOK, map[string]string{})
}

// Stats handles GET /api/users/stats/overview
func (h *UsersHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.users.Stats(r.Context())
	if err != nil {
		respondServiceError(r.Context(), h.logger, w, err, "Error fetching user statistics")
		return
	}
	respondData(w, http.StatusOK, stats)
}

func parseUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondValidation(w, []string{"Invalid user ID"})
		return uuid.Nil, false
	}
	return id, true
}
