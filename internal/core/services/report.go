// internal/core/services/report.go
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
)

// DashboardCachePrefix namespaces every cached aggregate
const DashboardCachePrefix = "dash"

// DashboardGenerationKey counts dataset refreshes. It sits outside the
// dash:* namespace so invalidation never resets it.
const DashboardGenerationKey = "dash_generation"

// DefaultCacheTTL bounds how long an aggregate may be served from cache
const DefaultCacheTTL = 5 * time.Minute

// ReportService answers dashboard and sales reporting queries. Aggregates
// are read through the cache; listings and exports always hit the database.
type ReportService struct {
	sales     ports.SalesRepository
	products  ports.ProductRepository
	customers ports.CustomerRepository
	cache     ports.CacheRepository
	ttl       time.Duration
	logger    *slog.Logger
}

var _ ports.ReportService = (*ReportService)(nil)

// NewReportService creates a new report service. cache may be nil.
func NewReportService(
	sales ports.SalesRepository,
	products ports.ProductRepository,
	customers ports.CustomerRepository,
	cache ports.CacheRepository,
	ttl time.Duration,
	logger *slog.Logger,
) *ReportService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ReportService{
		sales:     sales,
		products:  products,
		customers: customers,
		cache:     cache,
		ttl:       ttl,
		logger:    logger.With(slog.String("service", "report")),
	}
}

// cacheKey derives a stable key from the aggregate name and its inputs
func cacheKey(name string, inputs ...interface{}) string {
	if len(inputs) == 0 {
		return DashboardCachePrefix + ":" + name
	}
	raw, err := json.Marshal(inputs)
	if err != nil {
		// unreachable for the plain structs passed here
		raw = []byte(fmt.Sprint(inputs...))
	}
	sum := sha256.Sum256(raw)
	return DashboardCachePrefix + ":" + name + ":" + hex.EncodeToString(sum[:8])
}

// cached reads key through the cache, computing it with fetch on a miss
func cached[T any](ctx context.Context, s *ReportService, key string, fetch func() (T, error)) (T, error) {
	if s.cache == nil {
		return fetch()
	}

	// Keys carry the generation read before fetching. A fetch that straddles a
	// refresh stores its result under the superseded generation, where no
	// later request looks.
	var gen int64
	if err := s.cache.Get(ctx, DashboardGenerationKey, &gen); err != nil && !errors.Is(err, ports.ErrCacheMiss) {
		s.logger.WarnContext(ctx, "cache generation unavailable, bypassing cache",
			slog.String("error", err.Error()))
		return fetch()
	}
	key += ":g" + strconv.FormatInt(gen, 10)

	var dest T
	err := s.cache.GetOrSet(ctx, key, &dest, func() (interface{}, error) {
		return fetch()
	}, s.ttl)
	return dest, err
}

// KPI returns the headline figures for period with growth against the
// preceding window of equal length
func (s *ReportService) KPI(ctx context.Context, period domain.DateRange) (*domain.KPI, error) {
	return cached(ctx, s, cacheKey("kpi", period), func() (*domain.KPI, error) {
		current, err := s.sales.KPITotals(ctx, period)
		if err != nil {
			return nil, fmt.Errorf("failed to get kpi totals: %w", err)
		}
		previous, err := s.sales.KPITotals(ctx, period.Previous())
		if err != nil {
			return nil, fmt.Errorf("failed to get previous kpi totals: %w", err)
		}
		return domain.NewKPI(period, *current, *previous), nil
	})
}

// SalesTrend returns the per-day sales series for period
func (s *ReportService) SalesTrend(ctx context.Context, period domain.DateRange) ([]domain.TrendPoint, error) {
	filter := domain.SalesFilter{}.WithDateRange(period)
	return cached(ctx, s, cacheKey("trend", period), func() ([]domain.TrendPoint, error) {
		days, err := s.sales.DailyTotals(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to get sales trend: %w", err)
		}
		return domain.ShapeTrend(days), nil
	})
}

// DailySales returns per-day counts and revenue for filter
func (s *ReportService) DailySales(ctx context.Context, filter domain.SalesFilter) ([]domain.DailySales, error) {
	return cached(ctx, s, cacheKey("daily", filter), func() ([]domain.DailySales, error) {
		days, err := s.sales.DailyTotals(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to get daily sales: %w", err)
		}
		return domain.ShapeDailySales(days), nil
	})
}

// SalesByCategory returns category totals with their share of revenue
func (s *ReportService) SalesByCategory(ctx context.Context, filter domain.SalesFilter) ([]domain.CategoryBreakdown, error) {
	return cached(ctx, s, cacheKey("category", filter), func() ([]domain.CategoryBreakdown, error) {
		groups, err := s.sales.TotalsByCategory(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to get sales by category: %w", err)
		}
		return domain.ShapeCategoryTotals(groups), nil
	})
}

// RevenueByRegion returns region revenue with its share of the total
func (s *ReportService) RevenueByRegion(ctx context.Context, filter domain.SalesFilter) ([]domain.RegionBreakdown, error) {
	return cached(ctx, s, cacheKey("region", filter), func() ([]domain.RegionBreakdown, error) {
		groups, err := s.sales.TotalsByRegion(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to get revenue by region: %w", err)
		}
		return domain.ShapeRegionTotals(groups), nil
	})
}

// Summary returns count, revenue and order value statistics
func (s *ReportService) Summary(ctx context.Context, filter domain.SalesFilter) (*domain.SalesSummary, error) {
	return cached(ctx, s, cacheKey("summary", filter), func() (*domain.SalesSummary, error) {
		summary, err := s.sales.Summary(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to get sales summary: %w", err)
		}
		return summary, nil
	})
}

// ListSales returns one page of joined sales
func (s *ReportService) ListSales(ctx context.Context, filter domain.SalesFilter, sort domain.SortOption, page domain.Pagination) (*ports.SalesPage, error) {
	sales, total, err := s.sales.List(ctx, filter, sort, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	if sales == nil {
		sales = []*domain.SaleDetail{}
	}

	return &ports.SalesPage{
		Sales:      sales,
		Pagination: domain.NewPageInfo(page, total),
	}, nil
}

// ExportSales returns every matching sale projected onto the export columns
func (s *ReportService) ExportSales(ctx context.Context, filter domain.SalesFilter, sort domain.SortOption, dateLayout string) ([]domain.ExportRow, error) {
	sales, err := s.sales.Export(ctx, filter, sort)
	if err != nil {
		return nil, fmt.Errorf("failed to export sales: %w", err)
	}

	rows := make([]domain.ExportRow, 0, len(sales))
	for _, sale := range sales {
		rows = append(rows, domain.NewExportRow(sale, dateLayout))
	}

	s.logger.InfoContext(ctx, "sales exported", slog.Int("rows", len(rows)))
	return rows, nil
}

// LowStockProducts lists products at or below threshold
func (s *ReportService) LowStockProducts(ctx context.Context, threshold int) ([]*domain.Product, error) {
	if threshold <= 0 {
		threshold = domain.DefaultLowStockThreshold
	}
	return cached(ctx, s, cacheKey("lowstock", threshold), func() ([]*domain.Product, error) {
		products, err := s.products.LowStock(ctx, threshold)
		if err != nil {
			return nil, fmt.Errorf("failed to get low stock products: %w", err)
		}
		return products, nil
	})
}

// ProductsByCategory returns catalogue statistics per category
func (s *ReportService) ProductsByCategory(ctx context.Context) ([]domain.ProductCategoryStats, error) {
	return cached(ctx, s, cacheKey("products"), func() ([]domain.ProductCategoryStats, error) {
		stats, err := s.products.StatsByCategory(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get products by category: %w", err)
		}
		return stats, nil
	})
}

// TopCustomers returns the customers with the most purchases
func (s *ReportService) TopCustomers(ctx context.Context, limit int) ([]*domain.Customer, error) {
	if limit <= 0 {
		limit = domain.DefaultTopCustomers
	}
	return cached(ctx, s, cacheKey("topcustomers", limit), func() ([]*domain.Customer, error) {
		customers, err := s.customers.TopCustomers(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to get top customers: %w", err)
		}
		return customers, nil
	})
}

// CustomersByRegion returns customer counts per region
func (s *ReportService) CustomersByRegion(ctx context.Context) ([]domain.CustomerRegionStats, error) {
	return cached(ctx, s, cacheKey("customers"), func() ([]domain.CustomerRegionStats, error) {
		stats, err := s.customers.StatsByRegion(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get customers by region: %w", err)
		}
		return stats, nil
	})
}

// CustomerStats returns purchase statistics over all customers
func (s *ReportService) CustomerStats(ctx context.Context) (*domain.PurchaseStats, error) {
	return cached(ctx, s, cacheKey("customerstats"), func() (*domain.PurchaseStats, error) {
		stats, err := s.customers.PurchaseStats(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get customer stats: %w", err)
		}
		return stats, nil
	})
}

// InvalidateCache drops every cached aggregate
func (s *ReportService) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	gen, err := s.cache.Incr(ctx, DashboardGenerationKey)
	if err != nil {
		return fmt.Errorf("failed to advance dashboard cache generation: %w", err)
	}
	if err := s.cache.DeletePattern(ctx, DashboardCachePrefix+":*"); err != nil {
		return fmt.Errorf("failed to invalidate dashboard cache: %w", err)
	}
	s.logger.InfoContext(ctx, "dashboard cache invalidated", slog.Int64("generation", gen))
	return nil
}

// WarmCache precomputes the unfiltered region and category breakdowns
func (s *ReportService) WarmCache(ctx context.Context) error {
	start := time.Now()
	if _, err := s.SalesByCategory(ctx, domain.SalesFilter{}); err != nil {
		return err
	}
	if _, err := s.RevenueByRegion(ctx, domain.SalesFilter{}); err != nil {
		return err
	}
	if _, err := s.ProductsByCategory(ctx); err != nil {
		return err
	}
	if _, err := s.CustomersByRegion(ctx); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "dashboard cache warmed", slog.Duration("duration", time.Since(start)))
	return nil
}
