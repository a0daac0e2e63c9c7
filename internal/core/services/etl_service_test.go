// internal/core/services/etl_service_test.go
package services_test

import (
	"context"
	"errors"
	"math/rand"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
	"github.com/ammerola/bi-dashboard/internal/core/services"
	"github.com/ammerola/bi-dashboard/test/helpers"
	"github.com/ammerola/bi-dashboard/test/mocks"
)

var (
	fixedNow   = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	skuPattern = regexp.MustCompile(`^SKU-[A-Z&]{3}-\d{4}$`)
)

func newTestGenerator(seed int64) *services.Generator {
	return services.NewGenerator(rand.New(rand.NewSource(seed)), func() time.Time { return fixedNow })
}

func TestGenerator_Generate(t *testing.T) {
	data, err := newTestGenerator(42).Generate()
	require.NoError(t, err)

	require.Len(t, data.Products, 25)
	require.Len(t, data.Customers, domain.GeneratedCustomers)
	require.Len(t, data.Sales, domain.GeneratedSales)

	t.Run("products", func(t *testing.T) {
		skus := map[string]bool{}
		for _, p := range data.Products {
			require.NoError(t, p.Validate())
			assert.Regexp(t, skuPattern, p.SKU)
			assert.False(t, skus[p.SKU], "duplicate sku %s", p.SKU)
			skus[p.SKU] = true

			assert.True(t, p.Price.IsInteger())
			assert.True(t, p.Price.GreaterThanOrEqual(decimal.NewFromInt(10)))
			assert.True(t, p.Price.LessThanOrEqual(decimal.NewFromInt(1000)))
			assert.GreaterOrEqual(t, p.StockQuantity, 0)
			assert.LessOrEqual(t, p.StockQuantity, 100)
			assert.Equal(t, p.StockQuantity > 0, p.InStock)
			assert.Equal(t, "Description for "+p.Name, p.Description)
			assert.Equal(t, "Sample Manufacturer", p.Manufacturer)
		}
		assert.Equal(t, "Smartphone", data.Products[0].Name)
		assert.Regexp(t, `^SKU-ELE-`, data.Products[0].SKU)
		assert.Regexp(t, `^SKU-HOM-`, data.Products[24].SKU)
	})

	t.Run("customers", func(t *testing.T) {
		for i, c := range data.Customers {
			require.NoError(t, c.Validate())
			assert.Equal(t, "Customer "+strconv.Itoa(i+1), c.Name)
			assert.Equal(t, "customer"+strconv.Itoa(i+1)+"@example.com", c.Email)
			assert.Regexp(t, `^\+1\d{10}$`, c.Phone)
			assert.Regexp(t, `^\d{3} Sample Street$`, c.Address.Street)
			assert.Regexp(t, `^\d{5}$`, c.Address.ZipCode)
			assert.Equal(t, "USA", c.Address.Country)
			assert.Equal(t, domain.CustomerActive, c.Status)
		}
	})

	t.Run("sales", func(t *testing.T) {
		products := map[string]*domain.Product{}
		for _, p := range data.Products {
			products[p.ID.String()] = p
		}
		customers := map[string]*domain.Customer{}
		for _, c := range data.Customers {
			customers[c.ID.String()] = c
		}

		windowStart := fixedNow.Add(-domain.GeneratedSalesWindow)
		for i, s := range data.Sales {
			require.NoError(t, s.Validate())
			p := products[s.ProductID.String()]
			c := customers[s.CustomerID.String()]
			require.NotNil(t, p)
			require.NotNil(t, c)

			assert.Equal(t, p.Category, s.Category)
			assert.Equal(t, c.Region, s.Region)
			assert.Equal(t, domain.SaleCompleted, s.Status)
			assert.Equal(t, "Sale record "+strconv.Itoa(i+1), s.Notes)

			multiple := s.Amount.Div(p.Price)
			assert.True(t, multiple.IsInteger())
			assert.True(t, multiple.GreaterThanOrEqual(decimal.NewFromInt(1)))
			assert.True(t, multiple.LessThanOrEqual(decimal.NewFromInt(5)))

			assert.False(t, s.Date.Before(windowStart))
			assert.False(t, s.Date.After(fixedNow))
		}
	})

	t.Run("customer_stats", func(t *testing.T) {
		total := 0
		for _, c := range data.Customers {
			total += c.TotalPurchases
			if c.TotalPurchases == 0 {
				assert.Nil(t, c.LastPurchaseDate)
			} else {
				assert.NotNil(t, c.LastPurchaseDate)
			}
		}
		assert.Equal(t, domain.GeneratedSales, total)
	})
}

func TestGenerator_Deterministic(t *testing.T) {
	a, err := newTestGenerator(7).Generate()
	require.NoError(t, err)
	b, err := newTestGenerator(7).Generate()
	require.NoError(t, err)

	for i := range a.Products {
		assert.Equal(t, a.Products[i].SKU, b.Products[i].SKU)
		assert.True(t, a.Products[i].Price.Equal(b.Products[i].Price))
	}
	for i := range a.Sales {
		assert.Equal(t, a.Sales[i].Date, b.Sales[i].Date)
		assert.True(t, a.Sales[i].Amount.Equal(b.Sales[i].Amount))
	}
}

func TestETLService_Run(t *testing.T) {
	tests := []struct {
		name          string
		salesErr      error
		expectedError string
	}{
		{
			name: "successful_refresh_invalidates_cache",
		},
		{
			name:          "sales_phase_failure_rolls_back",
			salesErr:      errors.New("copy failed"),
			expectedError: "sales phase",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			dataset := mocks.NewMockDatasetRepository(ctrl)
			writer := mocks.NewMockDatasetWriter(ctrl)
			reports := mocks.NewMockReportService(ctrl)

			dataset.EXPECT().
				Refresh(gomock.Any(), gomock.Any()).
				DoAndReturn(func(ctx context.Context, fn func(ports.DatasetWriter) error) error {
					return fn(writer)
				})

			writer.EXPECT().
				ReplaceProducts(gomock.Any(), gomock.Len(25)).
				Return(int64(25), nil)
			writer.EXPECT().
				ReplaceCustomers(gomock.Any(), gomock.Len(domain.GeneratedCustomers)).
				Return(int64(domain.GeneratedCustomers), nil)

			if tt.salesErr != nil {
				writer.EXPECT().
					ReplaceSales(gomock.Any(), gomock.Any()).
					Return(int64(0), tt.salesErr)
			} else {
				writer.EXPECT().
					ReplaceSales(gomock.Any(), gomock.Len(domain.GeneratedSales)).
					Return(int64(domain.GeneratedSales), nil)
				writer.EXPECT().
					UpdateCustomerStats(gomock.Any(), gomock.Len(domain.GeneratedCustomers)).
					Return(nil)
				reports.EXPECT().InvalidateCache(gomock.Any()).Return(nil)
			}

			service := services.NewETLService(dataset, reports, newTestGenerator(1), helpers.TestLogger())
			counts, err := service.Run(context.Background())

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.salesErr)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, counts)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, domain.DatasetCounts{Products: 25, Customers: 50, Sales: 500}, *counts)
		})
	}
}

func TestETLService_CacheInvalidationFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	dataset := mocks.NewMockDatasetRepository(ctrl)
	reports := mocks.NewMockReportService(ctrl)

	dataset.EXPECT().Refresh(gomock.Any(), gomock.Any()).Return(nil)
	reports.EXPECT().InvalidateCache(gomock.Any()).Return(errors.New("redis down"))

	service := services.NewETLService(dataset, reports, newTestGenerator(1), helpers.TestLogger())
	_, err := service.Run(context.Background())
	assert.NoError(t, err)
}
