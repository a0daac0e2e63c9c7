// internal/handlers/export.go
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/bi-dashboard/internal/adapters/storage"
	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
	"github.com/ammerola/bi-dashboard/internal/handlers/middleware"
	"github.com/ammerola/bi-dashboard/internal/pkg/spreadsheet"
)

// Export formats accepted by the format query parameter
const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// ExportHandler serves flattened sales exports, inline or archived
type ExportHandler struct {
	reports ports.ReportService
	queue   ports.TaskQueue
	jobs    ports.ExportJobStore
	now     func() time.Time
	logger  *slog.Logger
}

// NewExportHandler creates a new export handler. queue and jobs may be nil,
// which disables archived exports.
func NewExportHandler(reports ports.ReportService, queue ports.TaskQueue, jobs ports.ExportJobStore, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		reports: reports,
		queue:   queue,
		jobs:    jobs,
		now:     time.Now,
		logger:  logger.With(slog.String("handler", "export")),
	}
}

// DashboardExport handles GET /api/dashboard/export-sales
func (h *ExportHandler) DashboardExport(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, domain.ExportDateUS)
}

// SalesExport handles GET /api/sales/export
func (h *ExportHandler) SalesExport(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, domain.ExportDateISO)
}

func (h *ExportHandler) export(w http.ResponseWriter, r *http.Request, layout string) {
	ctx := r.Context()

	filter, sort, format, msgs := h.parseExportParams(r)
	if len(msgs) > 0 {
		respondValidation(w, msgs)
		return
	}

	rows, err := h.reports.ExportSales(ctx, filter, sort, layout)
	if err != nil {
		respondServiceError(ctx, h.logger, w, err, "Error exporting sales data")
		return
	}

	if format == FormatJSON {
		respondData(w, http.StatusOK, rows)
		return
	}

	var buf bytes.Buffer
	if err := spreadsheet.WriteSales(&buf, rows); err != nil {
		h.logger.ErrorContext(ctx, "failed to generate Excel file", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Error exporting sales data")
		return
	}

	filename := fmt.Sprintf("sales_export_%s.xlsx", h.now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", storage.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.ErrorContext(ctx, "failed to write Excel response", slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(ctx, "Excel export completed",
		slog.Int("total_rows", len(rows)),
		slog.String("filename", filename))
}

// Archive handles POST /api/dashboard/export-sales/archive
func (h *ExportHandler) Archive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.queue == nil || h.jobs == nil {
		respondError(w, http.StatusServiceUnavailable, "Export archive is not configured")
		return
	}

	filter, sort, _, msgs := h.parseExportParams(r)
	if len(msgs) > 0 {
		respondValidation(w, msgs)
		return
	}

	req := domain.ExportRequest{
		ID:         uuid.New().String(),
		Filter:     filter,
		Sort:       sort,
		DateLayout: domain.ExportDateUS,
	}
	if user, ok := middleware.UserFromContext(ctx); ok {
		req.RequestedBy = user.Email
	}

	job := &domain.ExportJob{ID: req.ID, Status: domain.ExportQueued, RequestedAt: h.now().UTC()}
	if err := h.jobs.Save(ctx, job); err != nil {
		respondServiceError(ctx, h.logger, w, err, "Error scheduling export")
		return
	}

	if _, err := h.queue.EnqueueExport(ctx, req); err != nil {
		job.Status = domain.ExportFailed
		job.Error = "could not be queued"
		if saveErr := h.jobs.Save(ctx, job); saveErr != nil {
			h.logger.WarnContext(ctx, "failed to mark export as failed",
				slog.String("export_id", job.ID),
				slog.String("error", saveErr.Error()))
		}
		respondServiceError(ctx, h.logger, w, err, "Error scheduling export")
		return
	}

	h.logger.InfoContext(ctx, "export archived job queued",
		slog.String("export_id", job.ID),
		slog.String("requested_by", req.RequestedBy))

	w.Header().Set("Location", "/api/dashboard/exports/"+job.ID)
	respondData(w, http.StatusAccepted, job)
}

// Status handles GET /api/dashboard/exports/{id}
func (h *ExportHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.jobs == nil {
		respondError(w, http.StatusServiceUnavailable, "Export archive is not configured")
		return
	}

	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		respondValidation(w, []string{"Invalid export ID"})
		return
	}

	job, err := h.jobs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Export not found")
			return
		}
		respondServiceError(ctx, h.logger, w, err, "Error fetching export status")
		return
	}
	respondData(w, http.StatusOK, job)
}

// parseExportParams reads filter, sort and format. Exports are unpaginated.
func (h *ExportHandler) parseExportParams(r *http.Request) (domain.SalesFilter, domain.SortOption, string, []string) {
	q := r.URL.Query()
	filter, msgs := parseSalesFilter(q, truncatedNow(h.now))
	sort, sortMsgs := parseSort(q)
	msgs = append(msgs, sortMsgs...)

	format := q.Get("format")
	switch format {
	case "":
		format = FormatJSON
	case FormatJSON, FormatXLSX:
	default:
		msgs = append(msgs, "Format must be json or xlsx")
	}
	return filter, sort, format, msgs
}
