package logger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLogger_AddsContextValues(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&LogConfig{Level: "debug", Format: "json", ServiceName: "bi-api"}, &buf)

	userID := uuid.New()
	ctx := WithRequest(context.Background(), "req-1", "GET", "/api/dashboard/kpi", "10.0.0.1")
	ctx = WithUser(ctx, userID, "admin")

	l.With(slog.String("handler", "dashboard")).InfoContext(ctx, "kpi served", slog.Int("orders", 3))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	entry := lines[0]

	assert.Equal(t, "kpi served", entry["msg"])
	assert.Equal(t, "INFO", entry["severity"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, userID.String(), entry["user_id"])
	assert.Equal(t, "admin", entry["role"])
	assert.Equal(t, "dashboard", entry["handler"])
	assert.Equal(t, "bi-api", entry["service"])
	assert.EqualValues(t, 3, entry["orders"])
}

func TestLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&LogConfig{Level: "warn", Format: "json"}, &buf)

	l.Info("dropped")
	l.Warn("kept")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["msg"])
}

func TestSanitizationHandler(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		key  string
		want string
	}{
		{
			name: "sensitive_key",
			attr: slog.String("password", "hunter2"),
			key:  "password",
			want: redacted,
		},
		{
			name: "refresh_token_key",
			attr: slog.String("refresh_token", "abc.def.ghi"),
			key:  "refresh_token",
			want: redacted,
		},
		{
			name: "email_value",
			attr: slog.String("email", "jane.doe@example.com"),
			key:  "email",
			want: "***@example.com",
		},
		{
			name: "bearer_in_value",
			attr: slog.String("header", "Bearer abc.def"),
			key:  "header",
			want: "Bearer " + redacted,
		},
		{
			name: "plain_value",
			attr: slog.String("region", "North"),
			key:  "region",
			want: "North",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := slog.New(NewSanitizationHandler(slog.NewJSONHandler(&buf, nil)))

			l.Info("event", tt.attr)

			lines := decodeLines(t, &buf)
			require.Len(t, lines, 1)
			assert.Equal(t, tt.want, lines[0][tt.key])
		})
	}
}

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	l := slog.New(NewMultiHandler(
		slog.NewJSONHandler(&a, nil),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	))

	l.Info("info only")
	l.Error("both")

	assert.Len(t, decodeLines(t, &a), 2)
	assert.Len(t, decodeLines(t, &b), 1)
}

func TestPrettyTextHandler(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewPrettyTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	l.With(slog.String("service", "etl")).Info("refresh done", slog.Int("sales", 500))
	l.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "refresh done")
	assert.Contains(t, out, "service\033[0m=etl")
	assert.Contains(t, out, "sales\033[0m=500")
	assert.NotContains(t, out, "hidden")
}

func TestELKHandler_ShipsOnClose(t *testing.T) {
	var (
		mu    sync.Mutex
		lines []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/_bulk", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		scanner := bufio.NewScanner(bytes.NewReader(body))
		mu.Lock()
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var stdout bytes.Buffer
	l := newLogger(&LogConfig{
		Level:  "info",
		Format: "json",
		ELK: &ELKConfig{
			ElasticsearchURL: server.URL,
			IndexPattern:     "test",
			BatchSize:        50,
			EnableBatching:   true,
		},
	}, &stdout)

	ctx := WithTask(context.Background(), "etl:refresh", "task-1")
	l.InfoContext(ctx, "refresh started")
	l.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, lines, 2)

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "refresh started", entry.Message)
	assert.Equal(t, "etl:refresh", entry.TaskType)
	assert.Len(t, decodeLines(t, &stdout), 1)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
