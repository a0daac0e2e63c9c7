// internal/handlers/middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
	"github.com/ammerola/bi-dashboard/internal/pkg/logger"
)

type authContextKey struct{}

type authInfo struct {
	user   *domain.User
	claims *domain.TokenClaims
}

// WithAuth stores the authenticated caller in ctx
func WithAuth(ctx context.Context, user *domain.User, claims *domain.TokenClaims) context.Context {
	ctx = logger.WithUser(ctx, user.ID, string(user.Role))
	return context.WithValue(ctx, authContextKey{}, authInfo{user: user, claims: claims})
}

// UserFromContext returns the authenticated user, if any
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	info, ok := ctx.Value(authContextKey{}).(authInfo)
	return info.user, ok && info.user != nil
}

// ClaimsFromContext returns the verified access token claims, if any
func ClaimsFromContext(ctx context.Context) (*domain.TokenClaims, bool) {
	info, ok := ctx.Value(authContextKey{}).(authInfo)
	return info.claims, ok && info.claims != nil
}

const notAuthorized = "Not authorized to access this route"

// Authenticate requires a valid, unrevoked bearer access token
func Authenticate(auth ports.AuthService, l *slog.Logger) func(http.Handler) http.Handler {
	l = l.With(slog.String("component", "auth"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, notAuthorized)
				return
			}

			user, claims, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if !isAuthError(err) {
					// store or blacklist outage: the request is still refused
					l.ErrorContext(r.Context(), "token authentication failed",
						slog.String("error", err.Error()))
					writeError(w, http.StatusInternalServerError, "Error authenticating request")
					return
				}
				writeError(w, http.StatusUnauthorized, notAuthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), user, claims)))
		})
	}
}

// RequireRole admits only callers holding one of roles. It must run after
// Authenticate.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, notAuthorized)
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden,
				"User role "+string(user.Role)+" is not authorized to access this route")
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func isAuthError(err error) bool {
	return errors.Is(err, domain.ErrInvalidToken) ||
		errors.Is(err, domain.ErrExpiredToken) ||
		errors.Is(err, domain.ErrInvalidTokenType) ||
		errors.Is(err, domain.ErrTokenRevoked) ||
		errors.Is(err, domain.ErrNotFound)
}
