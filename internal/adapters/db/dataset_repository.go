// internal/adapters/db/dataset_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
)

var (
	productCopyColumns = []string{
		"id", "name", "category", "price", "description", "sku",
		"stock_quantity", "unit", "manufacturer", "last_restocked", "created_at", "updated_at",
	}
	customerCopyColumns = []string{
		"id", "name", "email", "region", "street", "city", "state", "zip_code", "country",
		"phone", "customer_type", "status", "total_purchases", "last_purchase_date",
		"created_at", "updated_at",
	}
	saleCopyColumns = []string{
		"id", "amount", "date", "region", "category", "product_id", "customer_id",
		"status", "payment_method", "notes", "created_at", "updated_at",
	}
)

// datasetRepository implements ports.DatasetRepository
type datasetRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewDatasetRepository creates the repository used by the ETL job
func NewDatasetRepository(db *Database, logger *slog.Logger) ports.DatasetRepository {
	return &datasetRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "dataset")),
	}
}

// Refresh hands fn a writer bound to one transaction. Readers keep seeing
// the previous dataset until it commits.
func (r *datasetRepository) Refresh(ctx context.Context, fn func(ports.DatasetWriter) error) error {
	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		return fn(&datasetWriter{tx: tx, logger: r.logger})
	})
}

func (r *datasetRepository) Counts(ctx context.Context) (*domain.DatasetCounts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM customers),
			(SELECT COUNT(*) FROM sales)`

	c := &domain.DatasetCounts{}
	if err := r.db.QueryRow(ctx, query).Scan(&c.Products, &c.Customers, &c.Sales); err != nil {
		return nil, fmt.Errorf("failed to count dataset: %w", err)
	}
	return c, nil
}

type datasetWriter struct {
	tx     pgx.Tx
	logger *slog.Logger
}

func (w *datasetWriter) ReplaceProducts(ctx context.Context, products []*domain.Product) (int64, error) {
	return w.replace(ctx, "products", productCopyColumns, len(products), func(i int) ([]any, error) {
		p := products[i]
		return []any{
			pgUUID(p.ID), p.Name, p.Category, pgNumeric(p.Price), nullable(p.Description), p.SKU,
			int32(p.StockQuantity), string(p.Unit), nullable(p.Manufacturer),
			p.LastRestocked, p.CreatedAt, p.UpdatedAt,
		}, nil
	})
}

func (w *datasetWriter) ReplaceCustomers(ctx context.Context, customers []*domain.Customer) (int64, error) {
	return w.replace(ctx, "customers", customerCopyColumns, len(customers), func(i int) ([]any, error) {
		c := customers[i]
		return []any{
			pgUUID(c.ID), c.Name, c.Email, string(c.Region),
			nullable(c.Address.Street), nullable(c.Address.City), nullable(c.Address.State),
			nullable(c.Address.ZipCode), c.Address.Country,
			nullable(c.Phone), string(c.CustomerType), string(c.Status),
			int32(c.TotalPurchases), c.LastPurchaseDate,
			c.CreatedAt, c.UpdatedAt,
		}, nil
	})
}

func (w *datasetWriter) ReplaceSales(ctx context.Context, sales []*domain.Sale) (int64, error) {
	return w.replace(ctx, "sales", saleCopyColumns, len(sales), func(i int) ([]any, error) {
		s := sales[i]
		return []any{
			pgUUID(s.ID), pgNumeric(s.Amount), s.Date, string(s.Region), s.Category,
			pgUUID(s.ProductID), pgUUID(s.CustomerID),
			string(s.Status), string(s.PaymentMethod), nullable(s.Notes),
			s.CreatedAt, s.UpdatedAt,
		}, nil
	})
}

// replace empties table and bulk-copies n rows into it
func (w *datasetWriter) replace(ctx context.Context, table string, columns []string, n int, row func(int) ([]any, error)) (int64, error) {
	tag, err := w.tx.Exec(ctx, "DELETE FROM "+pgx.Identifier{table}.Sanitize())
	if err != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", table, err)
	}
	w.logger.DebugContext(ctx, "table cleared",
		slog.String("table", table),
		slog.Int64("deleted", tag.RowsAffected()))

	if n == 0 {
		return 0, nil
	}

	copied, err := w.tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromSlice(n, row))
	if err != nil {
		return 0, fmt.Errorf("failed to copy %s: %w", table, translateError(err))
	}
	return copied, nil
}

// UpdateCustomerStats writes the derived purchase counters in one batch
func (w *datasetWriter) UpdateCustomerStats(ctx context.Context, customers []*domain.Customer) error {
	if len(customers) == 0 {
		return nil
	}

	query := `UPDATE customers SET total_purchases = $2, last_purchase_date = $3, updated_at = NOW() WHERE id = $1`

	batch := &pgx.Batch{}
	for _, c := range customers {
		batch.Queue(query, pgUUID(c.ID), int32(c.TotalPurchases), c.LastPurchaseDate)
	}

	br := w.tx.SendBatch(ctx, batch)
	defer br.Close()

	for _, c := range customers {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to update stats for customer %s: %w", c.ID, err)
		}
	}
	return nil
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
