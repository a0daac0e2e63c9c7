// internal/core/services/user.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
)

// RecentSignupWindow is the look-back of UserStats.RecentSignups
const RecentSignupWindow = 30 * 24 * time.Hour

// UserService manages accounts on behalf of administrators
type UserService struct {
	users      ports.UserRepository
	bcryptCost int
	now        func() time.Time
	logger     *slog.Logger
}

var _ ports.UserService = (*UserService)(nil)

// NewUserService creates a new user service
func NewUserService(users ports.UserRepository, bcryptCost int, logger *slog.Logger) *UserService {
	return &UserService{
		users:      users,
		bcryptCost: bcryptCost,
		now:        time.Now,
		logger:     logger.With(slog.String("service", "user")),
	}
}

// List returns one page of accounts, newest first
func (s *UserService) List(ctx context.Context, page domain.Pagination) ([]*domain.User, domain.PageInfo, error) {
	users, total, err := s.users.List(ctx, page)
	if err != nil {
		return nil, domain.PageInfo{}, fmt.Errorf("failed to list users: %w", err)
	}
	if users == nil {
		users = []*domain.User{}
	}
	return users, domain.NewPageInfo(page, total), nil
}

// Get returns one account
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Create adds an account with any role
func (s *UserService) Create(ctx context.Context, input domain.CreateUserInput) (*domain.User, error) {
	user, err := newUser(input.Name, input.Email, input.Password, input.Role, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user created",
		slog.String("user_id", user.ID.String()),
		slog.String("role", string(user.Role)))
	return user, nil
}

// Update applies the non-nil fields of input
func (s *UserService) Update(ctx context.Context, id uuid.UUID, input domain.UpdateUserInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Role != nil {
		user.Role = *input.Role
	}

	user.PrepareForStorage()
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// Delete removes an account. Administrators cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return fmt.Errorf("%w: cannot delete your own account", domain.ErrForbidden)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.InfoContext(ctx, "user deleted",
		slog.String("user_id", id.String()),
		slog.String("deleted_by", actorID.String()))
	return nil
}

// Stats returns totals per role and recent signups
func (s *UserService) Stats(ctx context.Context) (*domain.UserStats, error) {
	stats, err := s.users.Stats(ctx, s.now().Add(-RecentSignupWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	return stats, nil
}
