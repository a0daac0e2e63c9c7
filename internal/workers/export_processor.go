// internal/workers/export_processor.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/bi-dashboard/internal/adapters/storage"
	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
	"github.com/ammerola/bi-dashboard/internal/pkg/spreadsheet"
)

// DefaultURLExpiry is the lifetime of a download link
const DefaultURLExpiry = 24 * time.Hour

// ExportProcessor renders archived exports and uploads them
type ExportProcessor struct {
	reports   ports.ReportService
	archive   ports.ExportArchive
	jobs      ports.ExportJobStore
	urlExpiry time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewExportProcessor creates a new export processor
func NewExportProcessor(reports ports.ReportService, archive ports.ExportArchive, jobs ports.ExportJobStore, urlExpiry time.Duration, logger *slog.Logger) *ExportProcessor {
	if urlExpiry <= 0 {
		urlExpiry = DefaultURLExpiry
	}
	return &ExportProcessor{
		reports:   reports,
		archive:   archive,
		jobs:      jobs,
		urlExpiry: urlExpiry,
		now:       time.Now,
		logger:    logger.With(slog.String("processor", "export")),
	}
}

// ProcessExport builds the workbook for one request and records the outcome
func (p *ExportProcessor) ProcessExport(ctx context.Context, t *asynq.Task) error {
	var req domain.ExportRequest
	if err := json.Unmarshal(t.Payload(), &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if req.ID == "" {
		return fmt.Errorf("export request without id: %w", asynq.SkipRetry)
	}

	job, err := p.jobs.Get(ctx, req.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("failed to load export job: %w", err)
		}
		job = &domain.ExportJob{ID: req.ID, Status: domain.ExportQueued, RequestedAt: p.now()}
	}

	p.logger.InfoContext(ctx, "processing export",
		slog.String("export_id", req.ID),
		slog.String("requested_by", req.RequestedBy))

	if err := p.run(ctx, req, job); err != nil {
		job.Status = domain.ExportFailed
		job.Error = err.Error()
		if saveErr := p.jobs.Save(ctx, job); saveErr != nil {
			p.logger.ErrorContext(ctx, "failed to record export failure",
				slog.String("export_id", req.ID),
				slog.String("error", saveErr.Error()))
		}
		return err
	}

	if err := p.jobs.Save(ctx, job); err != nil {
		return fmt.Errorf("failed to record export result: %w", err)
	}

	p.logger.InfoContext(ctx, "export completed",
		slog.String("export_id", req.ID),
		slog.Int("rows", job.Rows),
		slog.String("key", job.Key))
	return nil
}

func (p *ExportProcessor) run(ctx context.Context, req domain.ExportRequest, job *domain.ExportJob) error {
	layout := req.DateLayout
	if layout == "" {
		layout = domain.ExportDateISO
	}

	rows, err := p.reports.ExportSales(ctx, req.Filter, req.Sort, layout)
	if err != nil {
		return fmt.Errorf("failed to load export rows: %w", err)
	}

	var buf bytes.Buffer
	if err := spreadsheet.WriteSales(&buf, rows); err != nil {
		return err
	}

	key := storage.ExportKey(req.ID, job.RequestedAt)
	if _, err := p.archive.Upload(ctx, key, &buf, storage.ContentTypeXLSX); err != nil {
		return fmt.Errorf("failed to upload export: %w", err)
	}

	url, err := p.archive.PresignGet(ctx, key, p.urlExpiry)
	if err != nil {
		return fmt.Errorf("failed to presign export: %w", err)
	}

	completed := p.now()
	job.Status = domain.ExportCompleted
	job.Rows = len(rows)
	job.Key = key
	job.URL = url
	job.Error = ""
	job.CompletedAt = &completed
	return nil
}
