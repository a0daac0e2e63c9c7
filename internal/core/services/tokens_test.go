// internal/core/services/tokens_test.go
package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
)

func newTestTokenManager() *TokenManager {
	return NewTokenManager(TokenConfig{
		Secret:            "access-secret-access-secret-access",
		RefreshSecret:     "refresh-secret-refresh-secret-refr",
		AccessExpiration:  time.Hour,
		RefreshExpiration: 24 * time.Hour,
	})
}

func TestTokenManager_IssueAndVerify(t *testing.T) {
	m := newTestTokenManager()
	user := &domain.User{ID: uuid.New(), Role: domain.RoleAdmin}

	pair, err := m.Issue(user)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := m.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.Equal(t, domain.TokenAccess, claims.Type)
	assert.NotEmpty(t, claims.TokenID)
	assert.WithinDuration(t, pair.AccessTokenExpiresAt, claims.ExpiresAt, time.Second)

	refresh, err := m.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, claims.TokenID, refresh.TokenID)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := newTestTokenManager()
	user := &domain.User{ID: uuid.New(), Role: domain.RoleViewer}
	pair, err := m.Issue(user)
	require.NoError(t, err)

	shared := NewTokenManager(TokenConfig{Secret: "only-one-secret-only-one-secret-xx", AccessExpiration: time.Hour, RefreshExpiration: time.Hour})
	sharedPair, err := shared.Issue(user)
	require.NoError(t, err)

	expired := newTestTokenManager()
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredPair, err := expired.Issue(user)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": user.ID.String()})
	noneToken, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		verify  func(string) (*domain.TokenClaims, error)
		token   string
		wantErr error
	}{
		{name: "garbage", verify: m.VerifyAccess, token: "not-a-token", wantErr: domain.ErrInvalidToken},
		{name: "refresh_secret_as_access", verify: m.VerifyAccess, token: pair.RefreshToken, wantErr: domain.ErrInvalidToken},
		{name: "same_secret_wrong_type", verify: shared.VerifyAccess, token: sharedPair.RefreshToken, wantErr: domain.ErrInvalidTokenType},
		{name: "expired", verify: m.VerifyAccess, token: expiredPair.AccessToken, wantErr: domain.ErrExpiredToken},
		{name: "unsigned", verify: m.VerifyAccess, token: noneToken, wantErr: domain.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.verify(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
