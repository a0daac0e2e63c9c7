// internal/core/ports/services.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
)

// SalesPage is one page of a sales listing
type SalesPage struct {
	Sales      []*domain.SaleDetail
	Pagination domain.PageInfo
}

// ReportService defines the application service port for dashboard and sales reporting
type ReportService interface {
	KPI(ctx context.Context, period domain.DateRange) (*domain.KPI, error)
	SalesTrend(ctx context.Context, period domain.DateRange) ([]domain.TrendPoint, error)
	DailySales(ctx context.Context, filter domain.SalesFilter) ([]domain.DailySales, error)
	SalesByCategory(ctx context.Context, filter domain.SalesFilter) ([]domain.CategoryBreakdown, error)
	RevenueByRegion(ctx context.Context, filter domain.SalesFilter) ([]domain.RegionBreakdown, error)
	Summary(ctx context.Context, filter domain.SalesFilter) (*domain.SalesSummary, error)
	ListSales(ctx context.Context, filter domain.SalesFilter, sort domain.SortOption, page domain.Pagination) (*SalesPage, error)
	ExportSales(ctx context.Context, filter domain.SalesFilter, sort domain.SortOption, dateLayout string) ([]domain.ExportRow, error)

	LowStockProducts(ctx context.Context, threshold int) ([]*domain.Product, error)
	ProductsByCategory(ctx context.Context) ([]domain.ProductCategoryStats, error)
	TopCustomers(ctx context.Context, limit int) ([]*domain.Customer, error)
	CustomersByRegion(ctx context.Context) ([]domain.CustomerRegionStats, error)
	CustomerStats(ctx context.Context) (*domain.PurchaseStats, error)

	InvalidateCache(ctx context.Context) error
	WarmCache(ctx context.Context) error
}

// ETLService regenerates the demo dataset
type ETLService interface {
	Run(ctx context.Context) (*domain.DatasetCounts, error)
}

// AuthService handles credentials and tokens
type AuthService interface {
	Register(ctx context.Context, input domain.RegisterInput) (*domain.AuthResult, error)
	Login(ctx context.Context, email, password string) (*domain.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.AuthResult, error)
	Logout(ctx context.Context, claims *domain.TokenClaims) error
	Authenticate(ctx context.Context, accessToken string) (*domain.User, *domain.TokenClaims, error)
	UpdateDetails(ctx context.Context, userID uuid.UUID, name, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, current, next string) (*domain.AuthResult, error)
}

// UserService defines administrator account management
type UserService interface {
	List(ctx context.Context, page domain.Pagination) ([]*domain.User, domain.PageInfo, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Create(ctx context.Context, input domain.CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, id uuid.UUID, input domain.UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
	Stats(ctx context.Context) (*domain.UserStats, error)
}

// TaskQueue enqueues background work and returns the task id
type TaskQueue interface {
	EnqueueETL(ctx context.Context) (string, error)
	EnqueueExport(ctx context.Context, req domain.ExportRequest) (string, error)
}
