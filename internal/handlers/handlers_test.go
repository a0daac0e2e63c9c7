package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	redis_a "github.com/ammerola/bi-dashboard/internal/adapters/redis_adapter"
	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/handlers"
	"github.com/ammerola/bi-dashboard/internal/handlers/middleware"
	"github.com/ammerola/bi-dashboard/test/helpers"
	"github.com/ammerola/bi-dashboard/test/mocks"
)

var (
	testAdmin  = &domain.User{ID: uuid.New(), Name: "Admin", Email: "admin@example.com", Role: domain.RoleAdmin}
	testViewer = &domain.User{ID: uuid.New(), Name: "Viewer", Email: "viewer@example.com", Role: domain.RoleViewer}
)

type apiFixture struct {
	reports *mocks.MockReportService
	auth    *mocks.MockAuthService
	users   *mocks.MockUserService
	queue   *mocks.MockTaskQueue
	jobs    *redis_a.ExportJobStore
	checks  map[string]handlers.HealthCheck
	handler http.Handler
}

// stubAuthenticate maps "Bearer admin" and "Bearer viewer" onto fixed users
func stubAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var user *domain.User
		switch r.Header.Get("Authorization") {
		case "Bearer admin":
			user = testAdmin
		case "Bearer viewer":
			user = testViewer
		default:
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		claims := &domain.TokenClaims{TokenID: "jti-" + string(user.Role), UserID: user.ID, Role: user.Role, Type: domain.TokenAccess}
		next.ServeHTTP(w, r.WithContext(middleware.WithAuth(r.Context(), user, claims)))
	})
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := helpers.TestLogger()
	r := helpers.SetupTestRedis(t)

	f := &apiFixture{
		reports: mocks.NewMockReportService(ctrl),
		auth:    mocks.NewMockAuthService(ctrl),
		users:   mocks.NewMockUserService(ctrl),
		queue:   mocks.NewMockTaskQueue(ctrl),
		jobs:    redis_a.NewExportJobStore(redis_a.NewCache(r.Client, time.Hour, logger), time.Hour),
		checks: map[string]handlers.HealthCheck{
			"database": func(ctx context.Context) error { return nil },
		},
	}

	f.handler = handlers.NewRouter(handlers.Routes{
		Auth:         handlers.NewAuthHandler(f.auth, logger),
		Dashboard:    handlers.NewDashboardHandler(f.reports, logger),
		Sales:        handlers.NewSalesHandler(f.reports, logger),
		Export:       handlers.NewExportHandler(f.reports, f.queue, f.jobs, logger),
		Users:        handlers.NewUsersHandler(f.users, logger),
		ETL:          handlers.NewETLHandler(f.queue, logger),
		Health:       handlers.NewHealthHandler("test", "test", f.checks, nil, logger),
		Authenticate: stubAuthenticate,
	})
	return f
}

func (f *apiFixture) do(t *testing.T, method, target, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	}

	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success    bool             `json:"success"`
	Data       json.RawMessage  `json:"data"`
	Pagination *domain.PageInfo `json:"pagination"`
	Message    string           `json:"message"`
	Errors     []string         `json:"errors"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}
