// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContextKey represents keys for context values
type ContextKey string

const (
	ContextKeyRequestID ContextKey = "request_id"
	ContextKeyUserID    ContextKey = "user_id"
	ContextKeyRole      ContextKey = "role"
	ContextKeyClientIP  ContextKey = "client_ip"
	ContextKeyMethod    ContextKey = "method"
	ContextKeyPath      ContextKey = "path"
	ContextKeyTaskType  ContextKey = "task_type"
	ContextKeyTaskID    ContextKey = "task_id"
)

var contextKeys = []ContextKey{
	ContextKeyRequestID,
	ContextKeyUserID,
	ContextKeyRole,
	ContextKeyClientIP,
	ContextKeyMethod,
	ContextKeyPath,
	ContextKeyTaskType,
	ContextKeyTaskID,
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level          string
	Format         string // json, text
	Output         string // stdout, stderr, file:<path>
	AddSource      bool
	SampleRate     float64
	EnableSampling bool
	Environment    string
	ServiceName    string
	ServiceVersion string
	// ELK, when its URL is set, ships every record to Elasticsearch as well
	ELK *ELKConfig
}

// Logger wraps slog.Logger and owns any background shippers
type Logger struct {
	*slog.Logger
	config *LogConfig
	elk    *ELKHandler
}

// SetupLogger builds a stdout logger and installs it as the slog default.
// ELASTICSEARCH_URL in the environment enables log shipping.
func SetupLogger(level string, format string) *Logger {
	config := &LogConfig{
		Level:          level,
		Format:         format,
		Output:         "stdout",
		AddSource:      level == "debug",
		ServiceName:    os.Getenv("SERVICE_NAME"),
		ServiceVersion: os.Getenv("SERVICE_VERSION"),
		Environment:    os.Getenv("APP_ENV"),
	}

	if url := os.Getenv("ELASTICSEARCH_URL"); url != "" {
		config.ELK = &ELKConfig{
			ElasticsearchURL: url,
			IndexPattern:     envOr("ELASTICSEARCH_INDEX", "bi-dashboard"),
			Username:         os.Getenv("ELASTICSEARCH_USERNAME"),
			Password:         os.Getenv("ELASTICSEARCH_PASSWORD"),
			BatchSize:        100,
			FlushInterval:    5 * time.Second,
			EnableBatching:   true,
		}
	}

	logger := NewLogger(config)
	slog.SetDefault(logger.Logger)

	return logger
}

// NewLogger creates a logger from config. A nil config yields JSON at info.
func NewLogger(config *LogConfig) *Logger {
	if config == nil {
		config = &LogConfig{Level: "info", Format: "json", Output: "stdout"}
	}
	return newLogger(config, getWriter(config.Output))
}

func newLogger(config *LogConfig, writer io.Writer) *Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(config.Level),
		AddSource: config.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			return replaceAttr(config, groups, a)
		},
	}

	var handler slog.Handler
	switch config.Format {
	case "text":
		handler = NewPrettyTextHandler(writer, opts)
	default:
		handler = slog.NewJSONHandler(writer, opts)
	}

	l := &Logger{config: config}

	if config.ELK != nil && config.ELK.ElasticsearchURL != "" {
		l.elk = NewELKHandler(*config.ELK, opts.Level)
		handler = NewMultiHandler(handler, l.elk)
	}

	handler = NewSanitizationHandler(handler)
	if config.EnableSampling && config.SampleRate > 0 && config.SampleRate < 1.0 {
		handler = NewSamplingHandler(handler, config.SampleRate)
	}
	handler = NewContextHandler(handler)

	var attrs []slog.Attr
	if config.ServiceName != "" {
		attrs = append(attrs, slog.String("service", config.ServiceName))
	}
	if config.ServiceVersion != "" {
		attrs = append(attrs, slog.String("version", config.ServiceVersion))
	}
	if config.Environment != "" {
		attrs = append(attrs, slog.String("env", config.Environment))
	}
	if len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}

	l.Logger = slog.New(handler)
	return l
}

// Close flushes buffered records to Elasticsearch, if configured
func (l *Logger) Close() {
	if l.elk != nil {
		l.elk.Close()
	}
}

// WithRequest stores request-scoped values picked up by every log call
func WithRequest(ctx context.Context, requestID, method, path, clientIP string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyRequestID, requestID)
	ctx = context.WithValue(ctx, ContextKeyMethod, method)
	ctx = context.WithValue(ctx, ContextKeyPath, path)
	return context.WithValue(ctx, ContextKeyClientIP, clientIP)
}

// WithUser records the authenticated caller
func WithUser(ctx context.Context, userID uuid.UUID, role string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUserID, userID)
	return context.WithValue(ctx, ContextKeyRole, role)
}

// WithTask records the background task being processed
func WithTask(ctx context.Context, taskType, taskID string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyTaskType, taskType)
	return context.WithValue(ctx, ContextKeyTaskID, taskID)
}

// RequestID returns the request id stored in ctx, if any
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id
}

// ParseLevel maps a level name onto slog; unknown names are info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getWriter(output string) io.Writer {
	switch output {
	case "stderr":
		return os.Stderr
	case "", "stdout":
		return os.Stdout
	}
	if filename, ok := strings.CutPrefix(output, "file:"); ok {
		file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			return file
		}
	}
	return os.Stdout
}

func extractContextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	for _, key := range contextKeys {
		val := ctx.Value(key)
		if val == nil {
			continue
		}
		keyStr := string(key)
		switch v := val.(type) {
		case string:
			if v != "" {
				attrs = append(attrs, slog.String(keyStr, v))
			}
		case uuid.UUID:
			attrs = append(attrs, slog.String(keyStr, v.String()))
		default:
			attrs = append(attrs, slog.Any(keyStr, v))
		}
	}
	return attrs
}

func replaceAttr(config *LogConfig, _ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.UTC().Format(time.RFC3339Nano))
		}
	}

	if a.Key == slog.LevelKey && config.Format != "text" {
		a.Key = "severity"
	}

	if strings.HasSuffix(a.Key, "_ms") {
		if d, ok := a.Value.Any().(time.Duration); ok {
			a.Value = slog.Float64Value(float64(d.Microseconds()) / 1000)
		}
	}

	return a
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
