// internal/core/services/tokens.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
)

const tokenIssuer = "bi-dashboard"

// Claims is the JWT payload
type Claims struct {
	jwt.RegisteredClaims
	Role      domain.Role      `json:"role"`
	TokenType domain.TokenType `json:"token_type"`
}

// TokenConfig configures a TokenManager. An empty RefreshSecret reuses Secret.
type TokenConfig struct {
	Secret            string
	RefreshSecret     string
	AccessExpiration  time.Duration
	RefreshExpiration time.Duration
}

// TokenManager issues and verifies HS256 tokens
type TokenManager struct {
	accessSecret      []byte
	refreshSecret     []byte
	accessExpiration  time.Duration
	refreshExpiration time.Duration
	now               func() time.Time
}

// NewTokenManager creates a new token manager
func NewTokenManager(cfg TokenConfig) *TokenManager {
	refreshSecret := cfg.RefreshSecret
	if refreshSecret == "" {
		refreshSecret = cfg.Secret
	}
	return &TokenManager{
		accessSecret:      []byte(cfg.Secret),
		refreshSecret:     []byte(refreshSecret),
		accessExpiration:  cfg.AccessExpiration,
		refreshExpiration: cfg.RefreshExpiration,
		now:               time.Now,
	}
}

// Issue signs an access and refresh token for user
func (m *TokenManager) Issue(user *domain.User) (*domain.TokenPair, error) {
	now := m.now()
	accessExpires := now.Add(m.accessExpiration)
	refreshExpires := now.Add(m.refreshExpiration)

	access, err := m.sign(user, domain.TokenAccess, now, accessExpires, m.accessSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := m.sign(user, domain.TokenRefresh, now, refreshExpires, m.refreshSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:           access,
		RefreshToken:          refresh,
		AccessTokenExpiresAt:  accessExpires,
		RefreshTokenExpiresAt: refreshExpires,
	}, nil
}

func (m *TokenManager) sign(user *domain.User, typ domain.TokenType, now, expires time.Time, secret []byte) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expires),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role:      user.Role,
		TokenType: typ,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// VerifyAccess validates an access token
func (m *TokenManager) VerifyAccess(token string) (*domain.TokenClaims, error) {
	return m.verify(token, m.accessSecret, domain.TokenAccess)
}

// VerifyRefresh validates a refresh token
func (m *TokenManager) VerifyRefresh(token string) (*domain.TokenClaims, error) {
	return m.verify(token, m.refreshSecret, domain.TokenRefresh)
}

func (m *TokenManager) verify(tokenString string, secret []byte, expected domain.TokenType) (*domain.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredToken
		}
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	if claims.TokenType != expected {
		return nil, domain.ErrInvalidTokenType
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	return &domain.TokenClaims{
		TokenID:   claims.ID,
		UserID:    userID,
		Role:      claims.Role,
		Type:      claims.TokenType,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
