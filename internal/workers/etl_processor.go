// internal/workers/etl_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/bi-dashboard/internal/core/ports"
)

// AnalyticsEnqueuer schedules a cache warm-up after a refresh
type AnalyticsEnqueuer interface {
	EnqueueAnalytics(ctx context.Context) error
}

// ETLProcessor runs dataset refresh tasks
type ETLProcessor struct {
	etl       ports.ETLService
	analytics AnalyticsEnqueuer
	logger    *slog.Logger
}

// NewETLProcessor creates a new ETL processor. analytics may be nil.
func NewETLProcessor(etl ports.ETLService, analytics AnalyticsEnqueuer, logger *slog.Logger) *ETLProcessor {
	return &ETLProcessor{
		etl:       etl,
		analytics: analytics,
		logger:    logger.With(slog.String("processor", "etl")),
	}
}

// ProcessRefresh regenerates the dataset, then queues a cache warm-up
func (p *ETLProcessor) ProcessRefresh(ctx context.Context, t *asynq.Task) error {
	taskID, _ := asynq.GetTaskID(ctx)
	p.logger.InfoContext(ctx, "processing ETL refresh", slog.String("task_id", taskID))

	counts, err := p.etl.Run(ctx)
	if err != nil {
		return fmt.Errorf("etl refresh failed: %w", err)
	}

	if p.analytics != nil {
		if err := p.analytics.EnqueueAnalytics(ctx); err != nil {
			p.logger.WarnContext(ctx, "failed to queue analytics refresh",
				slog.String("error", err.Error()))
		}
	}

	p.logger.InfoContext(ctx, "ETL refresh processed",
		slog.String("task_id", taskID),
		slog.Int64("products", counts.Products),
		slog.Int64("customers", counts.Customers),
		slog.Int64("sales", counts.Sales))
	return nil
}
