package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/bi-dashboard/internal/handlers"
)

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		f := newAPIFixture(t)

		w := f.do(t, http.MethodGet, "/health", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var status handlers.HealthStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		assert.Equal(t, "healthy", status.Status)
		assert.Equal(t, "healthy", status.Services["database"].Status)
	})

	t.Run("degraded_dependency", func(t *testing.T) {
		f := newAPIFixture(t)
		f.checks["redis"] = func(context.Context) error { return errors.New("connection refused") }

		w := f.do(t, http.MethodGet, "/health", "", nil)
		require.Equal(t, http.StatusServiceUnavailable, w.Code)

		var status handlers.HealthStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		assert.Equal(t, "degraded", status.Status)
		assert.Equal(t, "connection refused", status.Services["redis"].Message)
	})

	t.Run("readiness", func(t *testing.T) {
		f := newAPIFixture(t)
		f.checks["redis"] = func(context.Context) error { return errors.New("down") }

		w := f.do(t, http.MethodGet, "/ready", "", nil)
		require.Equal(t, http.StatusServiceUnavailable, w.Code)

		var body struct {
			Ready   bool              `json:"ready"`
			Details map[string]string `json:"details"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Ready)
		assert.Equal(t, "ready", body.Details["database"])
		assert.Equal(t, "not ready", body.Details["redis"])
	})
}
