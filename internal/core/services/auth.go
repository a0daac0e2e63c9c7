// internal/core/services/auth.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
)

// AuthConfig holds account policy settings
type AuthConfig struct {
	BcryptCost             int
	AllowAdminRegistration bool
}

// AuthService handles registration, login and token lifecycle
type AuthService struct {
	users     ports.UserRepository
	tokens    *TokenManager
	blacklist ports.TokenBlacklist
	cfg       AuthConfig
	logger    *slog.Logger
}

var _ ports.AuthService = (*AuthService)(nil)

// NewAuthService creates a new auth service
func NewAuthService(users ports.UserRepository, tokens *TokenManager, blacklist ports.TokenBlacklist, cfg AuthConfig, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		blacklist: blacklist,
		cfg:       cfg,
		logger:    logger.With(slog.String("service", "auth")),
	}
}

// Register creates a viewer account, or an admin account when allowed
func (s *AuthService) Register(ctx context.Context, input domain.RegisterInput) (*domain.AuthResult, error) {
	if input.Role == "" {
		input.Role = domain.RoleViewer
	}
	if input.Role == domain.RoleAdmin && !s.cfg.AllowAdminRegistration {
		return nil, fmt.Errorf("%w: admin registration is disabled", domain.ErrForbidden)
	}

	user, err := newUser(input.Name, input.Email, input.Password, input.Role, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID.String()),
		slog.String("role", string(user.Role)))

	return s.issue(user)
}

// Login verifies credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	if email == "" || password == "" {
		return nil, domain.NewValidationError("Please provide an email and password")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.CheckPassword(password) {
		return nil, domain.ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.users.RecordLogin(ctx, user.ID, now); err != nil {
		s.logger.WarnContext(ctx, "failed to record login",
			slog.String("user_id", user.ID.String()),
			slog.String("error", err.Error()))
	} else {
		user.LastLoginAt = &now
	}

	return s.issue(user)
}

// Refresh exchanges a refresh token for a new pair and revokes the old one
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.AuthResult, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.revoke(ctx, claims); err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Logout revokes the presented access token until it expires
func (s *AuthService) Logout(ctx context.Context, claims *domain.TokenClaims) error {
	if err := s.revoke(ctx, claims); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "user logged out", slog.String("user_id", claims.UserID.String()))
	return nil
}

// Authenticate resolves an access token to its current account
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.User, *domain.TokenClaims, error) {
	claims, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, nil, err
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, nil, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, claims, nil
}

// UpdateDetails changes the caller's name and email
func (s *AuthService) UpdateDetails(ctx context.Context, userID uuid.UUID, name, email string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user.Name = name
	user.Email = email
	user.PrepareForStorage()
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// UpdatePassword checks the current password, stores the new one and
// issues a fresh token pair
func (s *AuthService) UpdatePassword(ctx context.Context, userID uuid.UUID, current, next string) (*domain.AuthResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.CheckPassword(current) {
		return nil, fmt.Errorf("%w: password is incorrect", domain.ErrInvalidCredentials)
	}
	if err := user.SetPassword(next, s.cfg.BcryptCost); err != nil {
		return nil, err
	}
	user.PrepareForStorage()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.InfoContext(ctx, "password updated", slog.String("user_id", user.ID.String()))
	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*domain.AuthResult, error) {
	pair, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResult{User: user, Tokens: pair}, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *domain.TokenClaims) error {
	if s.blacklist == nil {
		return nil
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return fmt.Errorf("failed to check token blacklist: %w", err)
	}
	if revoked {
		return domain.ErrTokenRevoked
	}
	return nil
}

func (s *AuthService) revoke(ctx context.Context, claims *domain.TokenClaims) error {
	if s.blacklist == nil {
		return nil
	}
	if err := s.blacklist.Revoke(ctx, claims.TokenID, time.Until(claims.ExpiresAt)); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// newUser builds a validated account with a hashed password
func newUser(name, email, password string, role domain.Role, cost int) (*domain.User, error) {
	user := &domain.User{Name: name, Email: email, Role: role}
	if err := user.SetPassword(password, cost); err != nil {
		return nil, err
	}
	user.PrepareForStorage()
	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}
