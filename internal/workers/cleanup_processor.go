// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/bi-dashboard/internal/adapters/storage"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
)

// DefaultExportRetention is how long archived exports are kept
const DefaultExportRetention = 7 * 24 * time.Hour

// CleanupProcessor handles cleanup tasks
type CleanupProcessor struct {
	archive   ports.ExportArchive
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(archive ports.ExportArchive, retention time.Duration, logger *slog.Logger) *CleanupProcessor {
	if retention <= 0 {
		retention = DefaultExportRetention
	}
	return &CleanupProcessor{
		archive:   archive,
		retention: retention,
		now:       time.Now,
		logger:    logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupExports removes archived exports older than the retention period
func (p *CleanupProcessor) CleanupExports(ctx context.Context, t *asynq.Task) error {
	cutoff := p.now().Add(-p.retention)
	p.logger.InfoContext(ctx, "cleaning up archived exports", slog.Time("cutoff", cutoff))

	keys, err := p.archive.ListOlderThan(ctx, storage.ExportPrefix, cutoff)
	if err != nil {
		return fmt.Errorf("failed to list expired exports: %w", err)
	}
	if err := p.archive.DeleteMany(ctx, keys); err != nil {
		return fmt.Errorf("failed to delete expired exports: %w", err)
	}

	p.logger.InfoContext(ctx, "archived exports cleaned up",
		slog.Int("files_deleted", len(keys)))
	return nil
}
