// internal/handlers/router.go
package handlers

import (
	"net/http"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/handlers/middleware"
)

// Routes holds every handler mounted by NewRouter. Files is optional and
// serves locally stored exports.
type Routes struct {
	Auth         *AuthHandler
	Dashboard    *DashboardHandler
	Sales        *SalesHandler
	Export       *ExportHandler
	Users        *UsersHandler
	ETL          *ETLHandler
	Health       *HealthHandler
	Authenticate func(http.Handler) http.Handler
	Files        http.Handler
}

// NewRouter registers the API using method-specific patterns
func NewRouter(rt Routes) *http.ServeMux {
	mux := http.NewServeMux()

	anyRole := []domain.Role{domain.RoleAdmin, domain.RoleViewer}
	protect := func(h http.HandlerFunc, roles ...domain.Role) http.Handler {
		return middleware.Chain(h, rt.Authenticate, middleware.RequireRole(roles...))
	}

	mux.HandleFunc("GET /health", rt.Health.Health)
	mux.HandleFunc("GET /ready", rt.Health.Readiness)

	// Auth
	mux.HandleFunc("POST /api/auth/register", rt.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", rt.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", rt.Auth.Refresh)
	mux.Handle("POST /api/auth/logout", protect(rt.Auth.Logout, anyRole...))
	mux.Handle("GET /api/auth/me", protect(rt.Auth.Me, anyRole...))
	mux.Handle("PUT /api/auth/updatedetails", protect(rt.Auth.UpdateDetails, anyRole...))
	mux.Handle("PUT /api/auth/updatepassword", protect(rt.Auth.UpdatePassword, anyRole...))

	// Dashboard
	mux.Handle("GET /api/dashboard/kpi", protect(rt.Dashboard.KPI, anyRole...))
	mux.Handle("GET /api/dashboard/sales-trend", protect(rt.Dashboard.SalesTrend, anyRole...))
	mux.Handle("GET /api/dashboard/sales-by-category", protect(rt.Dashboard.SalesByCategory, anyRole...))
	mux.Handle("GET /api/dashboard/revenue-by-region", protect(rt.Dashboard.RevenueByRegion, anyRole...))
	mux.Handle("GET /api/dashboard/detailed-sales", protect(rt.Dashboard.DetailedSales, anyRole...))
	mux.Handle("GET /api/dashboard/low-stock", protect(rt.Dashboard.LowStock, anyRole...))
	mux.Handle("GET /api/dashboard/products-by-category", protect(rt.Dashboard.ProductsByCategory, anyRole...))
	mux.Handle("GET /api/dashboard/top-customers", protect(rt.Dashboard.TopCustomers, anyRole...))
	mux.Handle("GET /api/dashboard/customers-by-region", protect(rt.Dashboard.CustomersByRegion, anyRole...))
	mux.Handle("GET /api/dashboard/customer-stats", protect(rt.Dashboard.CustomerStats, anyRole...))
	mux.Handle("GET /api/dashboard/export-sales", protect(rt.Export.DashboardExport, anyRole...))
	mux.Handle("POST /api/dashboard/export-sales/archive", protect(rt.Export.Archive, anyRole...))
	mux.Handle("GET /api/dashboard/exports/{id}", protect(rt.Export.Status, anyRole...))

	// Sales
	mux.Handle("GET /api/sales", protect(rt.Sales.List, anyRole...))
	mux.Handle("GET /api/sales/summary", protect(rt.Sales.Summary, anyRole...))
	mux.Handle("GET /api/sales/trends", protect(rt.Sales.Trends, anyRole...))
	mux.Handle("GET /api/sales/export", protect(rt.Export.SalesExport, anyRole...))

	// Users
	mux.Handle("GET /api/users", protect(rt.Users.List, domain.RoleAdmin))
	mux.Handle("POST /api/users", protect(rt.Users.Create, domain.RoleAdmin))
	mux.Handle("GET /api/users/stats/overview", protect(rt.Users.Stats, domain.RoleAdmin))
	mux.Handle("GET /api/users/{id}", protect(rt.Users.Get, domain.RoleAdmin))
	mux.Handle("PUT /api/users/{id}", protect(rt.Users.Update, domain.RoleAdmin))
	mux.Handle("DELETE /api/users/{id}", protect(rt.Users.Delete, domain.RoleAdmin))

	// ETL
	mux.Handle("POST /api/etl/run", protect(rt.ETL.Run, domain.RoleAdmin))

	if rt.Files != nil {
		mux.Handle("GET /files/", http.StripPrefix("/files", rt.Files))
	}

	return mux
}
