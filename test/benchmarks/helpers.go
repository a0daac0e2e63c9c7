// test/benchmarks/helpers.go
package benchmarks

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
)

// staticSalesRepository answers every aggregate with fixed figures so
// benchmarks measure the service and cache layers only
type staticSalesRepository struct {
	details []*domain.SaleDetail
}

var _ ports.SalesRepository = (*staticSalesRepository)(nil)

func (r *staticSalesRepository) List(ctx context.Context, filter domain.SalesFilter, sort domain.SortOption, page domain.Pagination) ([]*domain.SaleDetail, int64, error) {
	end := page.Skip() + page.Limit
	if end > len(r.details) {
		end = len(r.details)
	}
	if page.Skip() >= end {
		return nil, int64(len(r.details)), nil
	}
	return r.details[page.Skip():end], int64(len(r.details)), nil
}

func (r *staticSalesRepository) Export(ctx context.Context, filter domain.SalesFilter, sort domain.SortOption) ([]*domain.SaleDetail, error) {
	return r.details, nil
}

func (r *staticSalesRepository) TotalsByRegion(ctx context.Context, filter domain.SalesFilter) ([]domain.GroupTotal, error) {
	return []domain.GroupTotal{
		{Key: string(domain.RegionNorth), Total: decimal.NewFromInt(1200), Count: 12},
		{Key: string(domain.RegionSouth), Total: decimal.NewFromInt(800), Count: 9},
	}, nil
}

func (r *staticSalesRepository) TotalsByCategory(ctx context.Context, filter domain.SalesFilter) ([]domain.GroupTotal, error) {
	return []domain.GroupTotal{
		{Key: "Electronics", Total: decimal.NewFromInt(1500), Count: 10},
		{Key: "Books", Total: decimal.NewFromInt(500), Count: 11},
	}, nil
}

func (r *staticSalesRepository) DailyTotals(ctx context.Context, filter domain.SalesFilter) ([]domain.DayTotal, error) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	days := make([]domain.DayTotal, 30)
	for i := range days {
		days[i] = domain.DayTotal{Day: start.AddDate(0, 0, i), Total: decimal.NewFromInt(int64(100 + i)), Count: 3}
	}
	return days, nil
}

func (r *staticSalesRepository) Summary(ctx context.Context, filter domain.SalesFilter) (*domain.SalesSummary, error) {
	return &domain.SalesSummary{TotalSales: 21, TotalRevenue: decimal.NewFromInt(2000)}, nil
}

func (r *staticSalesRepository) KPITotals(ctx context.Context, period domain.DateRange) (*domain.KPITotals, error) {
	return &domain.KPITotals{Revenue: decimal.NewFromInt(2000), Orders: 21, NewUsers: 4}, nil
}

// saleDetails joins a generated dataset the way the sales repository does
func saleDetails(data *domain.Dataset) []*domain.SaleDetail {
	products := make(map[string]*domain.Product, len(data.Products))
	for _, p := range data.Products {
		products[p.ID.String()] = p
	}
	customers := make(map[string]*domain.Customer, len(data.Customers))
	for _, c := range data.Customers {
		customers[c.ID.String()] = c
	}

	details := make([]*domain.SaleDetail, 0, len(data.Sales))
	for _, s := range data.Sales {
		p := products[s.ProductID.String()]
		c := customers[s.CustomerID.String()]
		details = append(details, &domain.SaleDetail{
			Sale:     *s,
			Product:  domain.ProductRef{ID: p.ID, Name: p.Name, Price: p.Price, Category: p.Category},
			Customer: domain.CustomerRef{ID: c.ID, Name: c.Name, Email: c.Email, Region: c.Region},
		})
	}
	return details
}
