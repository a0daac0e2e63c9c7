// internal/workers/server.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
)

// Processors bundles every task handler served by the worker
type Processors struct {
	ETL       *ETLProcessor
	Analytics *AnalyticsProcessor
	Export    *ExportProcessor
	Cleanup   *CleanupProcessor
}

// NewServeMux routes each task type to its processor. Nil processors are skipped.
func NewServeMux(p Processors) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	if p.ETL != nil {
		mux.HandleFunc(TypeETLRefresh, p.ETL.ProcessRefresh)
	}
	if p.Analytics != nil {
		mux.HandleFunc(TypeRefreshAnalytics, p.Analytics.RefreshAnalytics)
	}
	if p.Export != nil {
		mux.HandleFunc(TypeReportExport, p.Export.ProcessExport)
	}
	if p.Cleanup != nil {
		mux.HandleFunc(TypeCleanupExports, p.Cleanup.CleanupExports)
	}
	return mux
}

// ServerConfig holds the asynq server settings
type ServerConfig struct {
	Concurrency     int
	Queues          map[string]int
	StrictPriority  bool
	ShutdownTimeout time.Duration
}

// NewServer creates the asynq server with logging wired to logger
func NewServer(redisOpt asynq.RedisConnOpt, cfg ServerConfig, logger *slog.Logger) *asynq.Server {
	queues := cfg.Queues
	if len(queues) == 0 {
		queues = map[string]int{QueueCritical: 6, QueueDefault: 3, QueueLow: 1}
	}
	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.Concurrency,
		Queues:          queues,
		StrictPriority:  cfg.StrictPriority,
		ErrorHandler:    errorHandler(logger),
		ShutdownTimeout: cfg.ShutdownTimeout,
		HealthCheckFunc: healthCheck(logger),
		Logger:          NewAsynqLogger(logger),
	})
}

func errorHandler(logger *slog.Logger) asynq.ErrorHandlerFunc {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		logger.ErrorContext(ctx, "task processing failed",
			slog.String("type", task.Type()),
			slog.Int("retried", retried),
			slog.Int("max_retry", maxRetry),
			slog.String("error", err.Error()))
	}
}

func healthCheck(logger *slog.Logger) func(error) {
	return func(err error) {
		if err != nil {
			logger.Error("worker health check failed", slog.String("error", err.Error()))
		}
	}
}

// AsynqLogger adapts slog for Asynq
type AsynqLogger struct {
	logger *slog.Logger
}

// NewAsynqLogger tags every asynq line with its component
func NewAsynqLogger(logger *slog.Logger) *AsynqLogger {
	return &AsynqLogger{
		logger: logger.With(slog.String("component", "asynq")),
	}
}

func (l *AsynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *AsynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *AsynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *AsynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *AsynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
