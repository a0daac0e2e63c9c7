// internal/adapters/db/sales_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
)

// salesRepository implements ports.SalesRepository
type salesRepository struct {
	db     querier
	logger *slog.Logger
}

// NewSalesRepository creates a new sales repository
func NewSalesRepository(db *Database, logger *slog.Logger) ports.SalesRepository {
	return &salesRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "sales")),
	}
}

// List returns one page of joined sales and the total matching count
func (r *salesRepository) List(ctx context.Context, filter domain.SalesFilter, sort domain.SortOption, page domain.Pagination) ([]*domain.SaleDetail, int64, error) {
	countSQL, countArgs, err := buildSalesCountQuery(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sales: %w", err)
	}

	query, args, err := buildSalesListQuery(filter, sort, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query sales: %w", err)
	}

	sales, err := ScanMany(rows, scanSaleDetail)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan sales: %w", err)
	}

	r.logger.DebugContext(ctx, "sales listed",
		slog.Int("page", page.Page),
		slog.Int("returned", len(sales)),
		slog.Int64("total", total))

	return sales, total, nil
}

// Export returns every matching sale, unpaginated
func (r *salesRepository) Export(ctx context.Context, filter domain.SalesFilter, sort domain.SortOption) ([]*domain.SaleDetail, error) {
	query, args, err := buildSalesExportQuery(filter, sort)
	if err != nil {
		return nil, fmt.Errorf("failed to build export query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales for export: %w", err)
	}

	sales, err := ScanMany(rows, scanSaleDetail)
	if err != nil {
		return nil, fmt.Errorf("failed to scan sales for export: %w", err)
	}
	return sales, nil
}

func (r *salesRepository) TotalsByRegion(ctx context.Context, filter domain.SalesFilter) ([]domain.GroupTotal, error) {
	return r.groupTotals(ctx, "s.region", filter)
}

func (r *salesRepository) TotalsByCategory(ctx context.Context, filter domain.SalesFilter) ([]domain.GroupTotal, error) {
	return r.groupTotals(ctx, "s.category", filter)
}

func (r *salesRepository) groupTotals(ctx context.Context, column string, filter domain.SalesFilter) ([]domain.GroupTotal, error) {
	query, args, err := buildGroupTotalsQuery(column, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to build totals query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals by %s: %w", column, err)
	}

	totals, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.GroupTotal, error) {
		var g domain.GroupTotal
		err := row.Scan(&g.Key, &g.Total, &g.Count)
		return g, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan totals by %s: %w", column, err)
	}
	return totals, nil
}

// DailyTotals returns per-day sums in ascending day order
func (r *salesRepository) DailyTotals(ctx context.Context, filter domain.SalesFilter) ([]domain.DayTotal, error) {
	query, args, err := buildDailyTotalsQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to build daily totals query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily totals: %w", err)
	}

	days, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.DayTotal, error) {
		var d domain.DayTotal
		if err := row.Scan(&d.Day, &d.Total, &d.Count); err != nil {
			return d, err
		}
		d.Day = time.Date(d.Day.Year(), d.Day.Month(), d.Day.Day(), 0, 0, 0, 0, time.UTC)
		return d, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan daily totals: %w", err)
	}
	return days, nil
}

func (r *salesRepository) Summary(ctx context.Context, filter domain.SalesFilter) (*domain.SalesSummary, error) {
	query, args, err := buildSummaryQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to build summary query: %w", err)
	}

	s := &domain.SalesSummary{}
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&s.TotalSales, &s.TotalRevenue, &s.AverageOrderValue, &s.MinOrderValue, &s.MaxOrderValue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize sales: %w", err)
	}
	return s, nil
}

// KPITotals sums completed sales and counts customers created inside period
func (r *salesRepository) KPITotals(ctx context.Context, period domain.DateRange) (*domain.KPITotals, error) {
	query := `
		SELECT
			(SELECT COALESCE(SUM(amount), 0) FROM sales
			  WHERE date BETWEEN $1 AND $2 AND status = 'completed'),
			(SELECT COUNT(*) FROM sales
			  WHERE date BETWEEN $1 AND $2 AND status = 'completed'),
			(SELECT COUNT(*) FROM customers
			  WHERE created_at BETWEEN $1 AND $2)`

	t := &domain.KPITotals{}
	if err := r.db.QueryRow(ctx, query, period.Start, period.End).Scan(&t.Revenue, &t.Orders, &t.NewUsers); err != nil {
		return nil, fmt.Errorf("failed to compute kpi totals: %w", err)
	}
	return t, nil
}

func scanSaleDetail(rows pgx.Rows) (*domain.SaleDetail, error) {
	d := &domain.SaleDetail{}
	err := rows.Scan(
		&d.ID, &d.Amount, &d.Date, &d.Region, &d.Category,
		&d.ProductID, &d.CustomerID, &d.Status, &d.PaymentMethod,
		&d.Notes, &d.CreatedAt, &d.UpdatedAt,
		&d.Product.Name, &d.Product.Price, &d.Product.Category,
		&d.Customer.Name, &d.Customer.Email, &d.Customer.Region,
	)
	if err != nil {
		return nil, err
	}
	d.Product.ID = d.ProductID
	d.Customer.ID = d.CustomerID
	return d, nil
}
