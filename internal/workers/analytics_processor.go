// internal/workers/analytics_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/bi-dashboard/internal/core/ports"
)

// AnalyticsProcessor handles analytics refresh tasks
type AnalyticsProcessor struct {
	reports ports.ReportService
	logger  *slog.Logger
}

// NewAnalyticsProcessor creates a new analytics processor
func NewAnalyticsProcessor(reports ports.ReportService, logger *slog.Logger) *AnalyticsProcessor {
	return &AnalyticsProcessor{
		reports: reports,
		logger:  logger.With(slog.String("processor", "analytics")),
	}
}

// RefreshAnalytics warms the dashboard cache
func (p *AnalyticsProcessor) RefreshAnalytics(ctx context.Context, t *asynq.Task) error {
	if err := p.reports.WarmCache(ctx); err != nil {
		return fmt.Errorf("failed to warm dashboard cache: %w", err)
	}
	return nil
}
