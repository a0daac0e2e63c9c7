package benchmarks

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	redis_a "github.com/ammerola/bi-dashboard/internal/adapters/redis_adapter"
	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/services"
	"github.com/ammerola/bi-dashboard/internal/pkg/spreadsheet"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func generateDataset(b *testing.B) *domain.Dataset {
	b.Helper()
	data, err := services.NewGenerator(rand.New(rand.NewSource(42)), time.Now).Generate()
	if err != nil {
		b.Fatalf("generate dataset: %v", err)
	}
	return data
}

func BenchmarkGenerator(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		g := services.NewGenerator(rand.New(rand.NewSource(int64(i))), time.Now)
		if _, err := g.Generate(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExportRows(b *testing.B) {
	details := saleDetails(generateDataset(b))

	b.Run("ISO", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			for _, d := range details {
				_ = domain.NewExportRow(d, domain.ExportDateISO)
			}
		}
	})

	b.Run("US", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			for _, d := range details {
				_ = domain.NewExportRow(d, domain.ExportDateUS)
			}
		}
	})
}

func BenchmarkSpreadsheet(b *testing.B) {
	details := saleDetails(generateDataset(b))
	rows := make([]domain.ExportRow, 0, len(details))
	for _, d := range details {
		rows = append(rows, domain.NewExportRow(d, domain.ExportDateUS))
	}

	var buf bytes.Buffer
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := spreadsheet.WriteSales(&buf, rows); err != nil {
			b.Fatal(err)
		}
	}
	b.SetBytes(int64(buf.Len()))
}

func BenchmarkReportService(b *testing.B) {
	mr, err := miniredis.Run()
	if err != nil {
		b.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	logger := quietLogger()
	repo := &staticSalesRepository{details: saleDetails(generateDataset(b))}
	cache := redis_a.NewCache(client, time.Minute, logger)

	uncached := services.NewReportService(repo, nil, nil, nil, time.Minute, logger)
	withCache := services.NewReportService(repo, nil, nil, cache, time.Minute, logger)

	ctx := context.Background()
	period := domain.DefaultDateRange(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	filter := domain.SalesFilter{}.WithDateRange(period)

	b.Run("KPI_Uncached", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := uncached.KPI(ctx, period); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("KPI_Cached", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := withCache.KPI(ctx, period); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("SalesByCategory_Cached", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := withCache.SalesByCategory(ctx, filter); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("ListSales", func(b *testing.B) {
		page := domain.NewPagination(2, 50)
		for i := 0; i < b.N; i++ {
			if _, err := uncached.ListSales(ctx, filter, domain.DefaultSort, page); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("ExportSales", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := uncached.ExportSales(ctx, filter, domain.DefaultSort, domain.ExportDateISO); err != nil {
				b.Fatal(err)
			}
		}
	})
}
