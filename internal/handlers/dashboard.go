// internal/handlers/dashboard.go
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ammerola/bi-dashboard/internal/core/ports"
)

// DashboardHandler serves the dashboard charts and tables
type DashboardHandler struct {
	reports ports.ReportService
	now     func() time.Time
	logger  *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(reports ports.ReportService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		reports: reports,
		now:     time.Now,
		logger:  logger.With(slog.String("handler", "dashboard")),
	}
}

// KPI handles GET /api/dashboard/kpi
func (h *DashboardHandler) KPI(w http.ResponseWriter, r *http.Request) {
	period, msgs := parsePeriod(r.URL.Query(), truncatedNow(h.now))
	if len(msgs) > 0 {
		respondValidation(w, msgs)
		return
	}

	kpi, err := h.reports.KPI(r.Context(), period)
	if err != nil {
		respondServiceError(r.Context(), h.logger, w, err, "Error fetching KPI data")
		return
	}
	respondData(w, http.StatusOK, kpi)
}

// SalesTrend handles GET /api/dashboard/sales-trend
func (h *DashboardHandler) SalesTrend(w http.ResponseWriter, r *http.Request) {
	period, msgs := parsePeriod(r.URL.Query(), truncatedNow(h.now))
	if len(msgs) > 0 {
		respondValidation(w, msgs)
		return
	}

	trend, err := h.reports.SalesTrend(r.Context(), period)
	if err != nil {
		respondServiceError(r.Context(), h.logger, w, err, "Error fetching sales trend")
		return
	}
	respondData(w, http.StatusOK, trend)
}

// SalesByCategory handles GET /api/dashboard/sales-by-category
func (h *DashboardHandler) SalesByCategory(w http.ResponseWriter, r *http.Request) {
	filter, msgs := parseSalesFilter(r.URL.Query(), truncatedNow(h.now))
	if len(msgs) > 0 {
		respondValidation(w, msgs)
		return
	}

	rows, err := h.reports.SalesByCategory(r.Context(), filter)
	if err != nil {
		respondServiceError(r.Context(), h.logger, w, err, "Error fetching sales by category")
		return
	}
	respondData(w, http.StatusOK, rows)
}

// RevenueByRegion handles GET /api/dashboard/revenue-by-region
func (h *DashboardHandler) RevenueByRegion(w http.ResponseWriter, r *http.Request) {
	filter, msgs := parseSalesFilter(r.URL.Query(), truncatedNow(h.now))
	if len(msgs) > 0 {
		respondValidation(w, msgs)
		return
	}

	rows, err := h.reports.RevenueByRegion(r.Context(), filter)
	if err != nil {
		respondServiceError(r.Context(), h.logger, w, err, "Error fetching revenue by region")
		return
	}
	respondData(w, http.StatusOK, rows)
}

// DetailedSales handles GET /api/dashboard/detailed-sales
func (h *DashboardHandler) DetailedSales(w http.ResponseWriter, r *http.Request) {
	listSales(w, r, h.reports, truncatedNow(h.now), h.logger, "Error fetching detailed sales")
}

// LowStock handles GET /api/dashboard/low-stock
func (h *DashboardHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	threshold, msgs := parsePositiveInt(r.URL.Query(), "threshold", 0)
	if len(msgs) > 0 {
		respondValidation(w, msgs)
		return
	}

	products, err := h.reports.LowStockProducts(r.Context(), threshold)
	if err != nil {
		respondServiceError(r.Context(), h.logger, w, err, "Error fetching low stock products")
		return
	}
	respondData(w, http.StatusOK, products)
}

// ProductsByCategory handles GET /api/dashboard/products-by-category
func (h *DashboardHandler) ProductsByCategory(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.ProductsByCategory(r.Context())
	if err != nil {
		respondServiceError(r.Context(), h.logger, w, err, "Error fetching products by category")
		return
	}
	respondData(w, http.StatusOK, stats)
}

// TopCustomers handles GET /api/dashboard/top-customers
func (h *DashboardHandler) TopCustomers(w http.ResponseWriter, r *http.Request) {
	limit, msgs := parsePositiveInt(r.URL.Query(), "limit", 0)
	if len(msgs) > 0 {
		respondValidation(w, msgs)
		return
	}

	customers, err := h.reports.TopCustomers(r.Context(), limit)
	if err != nil {
		respondServiceError(r.Context(), h.logger, w, err, "Error fetching top customers")
		return
	}
	respondData(w, http.StatusOK, customers)
}

// CustomersByRegion handles GET /api/dashboard/customers-by-region
func (h *DashboardHandler) CustomersByRegion(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.CustomersByRegion(r.Context())
	if err != nil {
		respondServiceError(r.Context(), h.logger, w, err, "Error fetching customers by region")
		return
	}
	respondData(w, http.StatusOK, stats)
}

// CustomerStats handles GET /api/dashboard/customer-stats
func (h *DashboardHandler) CustomerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.CustomerStats(r.Context())
	if err != nil {
		respondServiceError(r.Context(), h.logger, w, err, "Error fetching customer statistics")
		return
	}
	respondData(w, http.StatusOK, stats)
}
