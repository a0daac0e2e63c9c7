// internal/core/ports/repositories.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
)

// SalesRepository is the read side over sales joined with products and customers
type SalesRepository interface {
	List(ctx context.Context, filter domain.SalesFilter, sort domain.SortOption, page domain.Pagination) ([]*domain.SaleDetail, int64, error)
	Export(ctx context.Context, filter domain.SalesFilter, sort domain.SortOption) ([]*domain.SaleDetail, error)
	TotalsByRegion(ctx context.Context, filter domain.SalesFilter) ([]domain.GroupTotal, error)
	TotalsByCategory(ctx context.Context, filter domain.SalesFilter) ([]domain.GroupTotal, error)
	DailyTotals(ctx context.Context, filter domain.SalesFilter) ([]domain.DayTotal, error)
	Summary(ctx context.Context, filter domain.SalesFilter) (*domain.SalesSummary, error)
	KPITotals(ctx context.Context, period domain.DateRange) (*domain.KPITotals, error)
}

// ProductRepository exposes catalogue statistics
type ProductRepository interface {
	StatsByCategory(ctx context.Context) ([]domain.ProductCategoryStats, error)
	LowStock(ctx context.Context, threshold int) ([]*domain.Product, error)
}

// CustomerRepository exposes customer statistics
type CustomerRepository interface {
	StatsByRegion(ctx context.Context) ([]domain.CustomerRegionStats, error)
	TopCustomers(ctx context.Context, limit int) ([]*domain.Customer, error)
	PurchaseStats(ctx context.Context) (*domain.PurchaseStats, error)
}

// UserRepository persists dashboard accounts. Lookups of missing rows
// return domain.ErrNotFound; unique email conflicts return domain.ErrDuplicate.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, page domain.Pagination) ([]*domain.User, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Stats(ctx context.Context, since time.Time) (*domain.UserStats, error)
}

// DatasetWriter replaces generated data. Every method runs inside the
// transaction opened by DatasetRepository.Refresh.
type DatasetWriter interface {
	ReplaceProducts(ctx context.Context, products []*domain.Product) (int64, error)
	ReplaceCustomers(ctx context.Context, customers []*domain.Customer) (int64, error)
	ReplaceSales(ctx context.Context, sales []*domain.Sale) (int64, error)
	UpdateCustomerStats(ctx context.Context, customers []*domain.Customer) error
}

// DatasetRepository runs fn in a single transaction. If fn returns an error
// nothing it wrote is kept.
type DatasetRepository interface {
	Refresh(ctx context.Context, fn func(DatasetWriter) error) error
	Counts(ctx context.Context) (*domain.DatasetCounts, error)
}
