// internal/handlers/sales.go
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
)

// SalesHandler serves the sales listing and statistics
type SalesHandler struct {
	reports ports.ReportService
	now     func() time.Time
	logger  *slog.Logger
}

// NewSalesHandler creates a new sales handler
func NewSalesHandler(reports ports.ReportService, logger *slog.Logger) *SalesHandler {
	return &SalesHandler{
		reports: reports,
		now:     time.Now,
		logger:  logger.With(slog.String("handler", "sales")),
	}
}

// List handles GET /api/sales
func (h *SalesHandler) List(w http.ResponseWriter, r *http.Request) {
	listSales(w, r, h.reports, truncatedNow(h.now), h.logger, "Error fetching sales data")
}

// Summary handles GET /api/sales/summary
func (h *SalesHandler) Summary(w http.ResponseWriter, r *http.Request) {
	filter, msgs := dateOnlyFilter(r)
	if len(msgs) > 0 {
		respondValidation(w, msgs)
		return
	}

	summary, err := h.reports.Summary(r.Context(), filter)
	if err != nil {
		respondServiceError(r.Context(), h.logger, w, err, "Error fetching sales summary")
		return
	}
	respondData(w, http.StatusOK, summary)
}

// Trends handles GET /api/sales/trends
func (h *SalesHandler) Trends(w http.ResponseWriter, r *http.Request) {
	filter, msgs := dateOnlyFilter(r)
	if len(msgs) > 0 {
		respondValidation(w, msgs)
		return
	}

	trends, err := h.reports.DailySales(r.Context(), filter)
	if err != nil {
		respondServiceError(r.Context(), h.logger, w, err, "Error fetching sales trends")
		return
	}
	respondData(w, http.StatusOK, trends)
}

// dateOnlyFilter honours startDate and endDate only, and only as a pair
func dateOnlyFilter(r *http.Request) (domain.SalesFilter, []string) {
	start, end, msgs := parseDateParams(r.URL.Query())
	if len(msgs) > 0 {
		return domain.SalesFilter{}, msgs
	}
	f := domain.SalesFilter{StartDate: start, EndDate: end}
	return f, domain.ValidationMessages(f.Validate())
}

func listSales(w http.ResponseWriter, r *http.Request, reports ports.ReportService, now time.Time, logger *slog.Logger, failure string) {
	q := r.URL.Query()
	filter, msgs := parseSalesFilter(q, now)
	sort, sortMsgs := parseSort(q)
	page, pageMsgs := parsePagination(q)
	msgs = append(append(msgs, sortMsgs...), pageMsgs...)
	if len(msgs) > 0 {
		respondValidation(w, msgs)
		return
	}

	result, err := reports.ListSales(r.Context(), filter, sort, page)
	if err != nil {
		respondServiceError(r.Context(), logger, w, err, failure)
		return
	}
	respondPage(w, result.Sales, result.Pagination)
}
