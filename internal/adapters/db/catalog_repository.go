// internal/adapters/db/catalog_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
)

const productColumns = `id, name, category, price, COALESCE(description, ''), sku,
	stock_quantity, in_stock, unit, COALESCE(manufacturer, ''),
	last_restocked, created_at, updated_at`

const customerColumns = `id, name, email, region,
	COALESCE(street, ''), COALESCE(city, ''), COALESCE(state, ''), COALESCE(zip_code, ''), country,
	COALESCE(phone, ''), customer_type, status, total_purchases, last_purchase_date,
	created_at, updated_at`

// productRepository implements ports.ProductRepository
type productRepository struct {
	db     querier
	logger *slog.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *Database, logger *slog.Logger) ports.ProductRepository {
	return &productRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "products")),
	}
}

// StatsByCategory groups the catalogue by category, alphabetically
func (r *productRepository) StatsByCategory(ctx context.Context) ([]domain.ProductCategoryStats, error) {
	query := `
		SELECT category, COUNT(*), ROUND(AVG(price), 2), COALESCE(SUM(stock_quantity), 0)
		FROM products
		GROUP BY category
		ORDER BY category`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query product stats: %w", err)
	}

	stats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ProductCategoryStats, error) {
		var s domain.ProductCategoryStats
		err := row.Scan(&s.Category, &s.Count, &s.AveragePrice, &s.TotalStock)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan product stats: %w", err)
	}
	return stats, nil
}

// LowStock lists products with stock at or below threshold, lowest first
func (r *productRepository) LowStock(ctx context.Context, threshold int) ([]*domain.Product, error) {
	query, args, err := psql().
		Select(productColumns).
		From("products").
		Where("stock_quantity <= ?", threshold).
		OrderBy("stock_quantity ASC", "name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build low stock query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock products: %w", err)
	}

	products, err := ScanMany(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("failed to scan low stock products: %w", err)
	}
	return products, nil
}

func scanProduct(rows pgx.Rows) (*domain.Product, error) {
	p := &domain.Product{}
	err := rows.Scan(
		&p.ID, &p.Name, &p.Category, &p.Price, &p.Description, &p.SKU,
		&p.StockQuantity, &p.InStock, &p.Unit, &p.Manufacturer,
		&p.LastRestocked, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// customerRepository implements ports.CustomerRepository
type customerRepository struct {
	db     querier
	logger *slog.Logger
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *Database, logger *slog.Logger) ports.CustomerRepository {
	return &customerRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "customers")),
	}
}

func (r *customerRepository) StatsByRegion(ctx context.Context) ([]domain.CustomerRegionStats, error) {
	query := `
		SELECT region, COUNT(*), COALESCE(SUM(total_purchases), 0)
		FROM customers
		GROUP BY region
		ORDER BY region`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query customer stats: %w", err)
	}

	stats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CustomerRegionStats, error) {
		var s domain.CustomerRegionStats
		err := row.Scan(&s.Region, &s.Count, &s.TotalPurchases)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan customer stats: %w", err)
	}
	return stats, nil
}

// TopCustomers orders by purchase count, most recent purchase breaking ties
func (r *customerRepository) TopCustomers(ctx context.Context, limit int) ([]*domain.Customer, error) {
	if limit <= 0 {
		limit = domain.DefaultTopCustomers
	}

	query, args, err := psql().
		Select(customerColumns).
		From("customers").
		OrderBy("total_purchases DESC", "last_purchase_date DESC NULLS LAST", "name ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build top customers query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top customers: %w", err)
	}

	customers, err := ScanMany(rows, scanCustomer)
	if err != nil {
		return nil, fmt.Errorf("failed to scan top customers: %w", err)
	}
	return customers, nil
}

func (r *customerRepository) PurchaseStats(ctx context.Context) (*domain.PurchaseStats, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(AVG(total_purchases), 0)::float8,
		       COALESCE(MAX(total_purchases), 0),
		       COALESCE(MIN(total_purchases), 0)
		FROM customers`

	s := &domain.PurchaseStats{}
	err := r.db.QueryRow(ctx, query).Scan(&s.TotalCustomers, &s.AveragePurchases, &s.MaxPurchases, &s.MinPurchases)
	if err != nil {
		return nil, fmt.Errorf("failed to compute purchase stats: %w", err)
	}
	return s, nil
}

func scanCustomer(rows pgx.Rows) (*domain.Customer, error) {
	c := &domain.Customer{}
	err := rows.Scan(
		&c.ID, &c.Name, &c.Email, &c.Region,
		&c.Address.Street, &c.Address.City, &c.Address.State, &c.Address.ZipCode, &c.Address.Country,
		&c.Phone, &c.CustomerType, &c.Status, &c.TotalPurchases, &c.LastPurchaseDate,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}
