// internal/core/domain/auth.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TokenType separates access tokens from refresh tokens
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// TokenClaims is the verified content of a token
type TokenClaims struct {
	TokenID   string
	UserID    uuid.UUID
	Role      Role
	Type      TokenType
	ExpiresAt time.Time
}

// TokenPair is returned on login, registration and refresh
type TokenPair struct {
	AccessToken           string    `json:"token"`
	RefreshToken          string    `json:"refreshToken"`
	AccessTokenExpiresAt  time.Time `json:"expiresAt"`
	RefreshTokenExpiresAt time.Time `json:"refreshExpiresAt"`
}

// AuthResult pairs an account with freshly issued tokens
type AuthResult struct {
	User   *User
	Tokens *TokenPair
}

// RegisterInput is the self-registration payload
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     Role
}

// CreateUserInput is the administrator account-creation payload
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     Role
}

// UpdateUserInput carries optional changes; nil fields are left alone
type UpdateUserInput struct {
	Name  *string
	Email *string
	Role  *Role
}
