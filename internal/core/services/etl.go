// internal/core/services/etl.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
)

// maxSKUAttempts bounds re-rolls of a colliding SKU suffix
const maxSKUAttempts = 100

var customerTypes = []domain.CustomerType{domain.CustomerIndividual, domain.CustomerBusiness}

// Generator produces one demo dataset. It is not safe for concurrent use.
type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

// NewGenerator creates a generator drawing from rng with the clock now
func NewGenerator(rng *rand.Rand, now func() time.Time) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{rng: rng, now: now}
}

// between returns a uniform integer in [lo, hi]
func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

// Products builds five products per category
func (g *Generator) Products() ([]*domain.Product, error) {
	products := make([]*domain.Product, 0, len(domain.GeneratedCategories)*domain.GeneratedProductsPerCategory)
	skus := make(map[string]struct{})

	for _, category := range domain.GeneratedCategories {
		prefix := strings.ToUpper(category.Name[:3])
		for _, name := range category.Products {
			sku, err := g.uniqueSKU(prefix, skus)
			if err != nil {
				return nil, err
			}

			p := &domain.Product{
				Name:          name,
				Category:      category.Name,
				Price:         decimal.NewFromInt(int64(g.between(10, 1000))),
				Description:   "Description for " + name,
				SKU:           sku,
				StockQuantity: g.between(0, 100),
				Unit:          domain.UnitPiece,
				Manufacturer:  "Sample Manufacturer",
			}
			p.PrepareForStorage()
			products = append(products, p)
		}
	}
	return products, nil
}

func (g *Generator) uniqueSKU(prefix string, seen map[string]struct{}) (string, error) {
	for i := 0; i < maxSKUAttempts; i++ {
		sku := fmt.Sprintf("SKU-%s-%d", prefix, g.between(1000, 9999))
		if _, ok := seen[sku]; !ok {
			seen[sku] = struct{}{}
			return sku, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique sku for prefix %s", prefix)
}

// Customers builds the generated customer list
func (g *Generator) Customers() []*domain.Customer {
	customers := make([]*domain.Customer, 0, domain.GeneratedCustomers)
	for i := 1; i <= domain.GeneratedCustomers; i++ {
		c := &domain.Customer{
			Name:   fmt.Sprintf("Customer %d", i),
			Email:  fmt.Sprintf("customer%d@example.com", i),
			Region: domain.Regions[g.rng.Intn(len(domain.Regions))],
			Phone:  fmt.Sprintf("+1%d", 1000000000+g.rng.Int63n(9000000000)),
			Address: domain.Address{
				Street:  fmt.Sprintf("%d Sample Street", g.between(100, 999)),
				City:    "Sample City",
				State:   "Sample State",
				ZipCode: fmt.Sprintf("%d", g.between(10000, 99999)),
				Country: domain.DefaultCountry,
			},
			CustomerType: customerTypes[g.rng.Intn(len(customerTypes))],
			Status:       domain.CustomerActive,
		}
		c.PrepareForStorage()
		customers = append(customers, c)
	}
	return customers
}

// Sales builds sales of random products to random customers within the
// trailing window ending now. Amount is the product price times 1 to 5.
func (g *Generator) Sales(products []*domain.Product, customers []*domain.Customer) []*domain.Sale {
	if len(products) == 0 || len(customers) == 0 {
		return nil
	}

	end := g.now()
	start := end.Add(-domain.GeneratedSalesWindow)
	window := int64(end.Sub(start))

	sales := make([]*domain.Sale, 0, domain.GeneratedSales)
	for i := 1; i <= domain.GeneratedSales; i++ {
		product := products[g.rng.Intn(len(products))]
		customer := customers[g.rng.Intn(len(customers))]
		amount := product.Price.Mul(decimal.NewFromInt(int64(g.between(1, 5))))
		date := start.Add(time.Duration(g.rng.Int63n(window + 1)))
		method := domain.PaymentMethods[g.rng.Intn(len(domain.PaymentMethods))]

		s := domain.NewSale(product, customer, amount, date, method)
		s.Notes = fmt.Sprintf("Sale record %d", i)
		s.PrepareForStorage()
		sales = append(sales, s)
	}
	return sales
}

// Generate builds a complete dataset with customer statistics applied
func (g *Generator) Generate() (*domain.Dataset, error) {
	products, err := g.Products()
	if err != nil {
		return nil, err
	}
	customers := g.Customers()

	data := &domain.Dataset{
		Products:  products,
		Customers: customers,
		Sales:     g.Sales(products, customers),
	}
	data.ApplyPurchaseStats()
	return data, nil
}

// ETLService wipes and regenerates the demo dataset
type ETLService struct {
	dataset   ports.DatasetRepository
	reports   ports.ReportService
	generator *Generator
	logger    *slog.Logger
}

var _ ports.ETLService = (*ETLService)(nil)

// NewETLService creates a new ETL service. reports may be nil.
func NewETLService(dataset ports.DatasetRepository, reports ports.ReportService, generator *Generator, logger *slog.Logger) *ETLService {
	if generator == nil {
		generator = NewGenerator(nil, nil)
	}
	return &ETLService{
		dataset:   dataset,
		reports:   reports,
		generator: generator,
		logger:    logger.With(slog.String("service", "etl")),
	}
}

// Run replaces products, customers and sales in one transaction, then
// invalidates cached aggregates. Readers see the old or the new snapshot.
func (s *ETLService) Run(ctx context.Context) (*domain.DatasetCounts, error) {
	start := time.Now()
	s.logger.InfoContext(ctx, "starting ETL job")

	data, err := s.generator.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate dataset: %w", err)
	}

	counts := &domain.DatasetCounts{}
	err = s.dataset.Refresh(ctx, func(w ports.DatasetWriter) error {
		n, err := w.ReplaceProducts(ctx, data.Products)
		if err != nil {
			return fmt.Errorf("products phase: %w", err)
		}
		counts.Products = n
		s.logger.InfoContext(ctx, "generated products", slog.Int64("count", n))

		n, err = w.ReplaceCustomers(ctx, data.Customers)
		if err != nil {
			return fmt.Errorf("customers phase: %w", err)
		}
		counts.Customers = n
		s.logger.InfoContext(ctx, "generated customers", slog.Int64("count", n))

		n, err = w.ReplaceSales(ctx, data.Sales)
		if err != nil {
			return fmt.Errorf("sales phase: %w", err)
		}
		counts.Sales = n
		s.logger.InfoContext(ctx, "generated sales records", slog.Int64("count", n))

		if err := w.UpdateCustomerStats(ctx, data.Customers); err != nil {
			return fmt.Errorf("customer stats phase: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "ETL job failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("etl refresh failed: %w", err)
	}

	if s.reports != nil {
		if err := s.reports.InvalidateCache(ctx); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate cache after ETL",
				slog.String("error", err.Error()))
		}
	}

	s.logger.InfoContext(ctx, "ETL job completed successfully",
		slog.Int64("products", counts.Products),
		slog.Int64("customers", counts.Customers),
		slog.Int64("sales", counts.Sales),
		slog.Duration("duration", time.Since(start)))

	return counts, nil
}
