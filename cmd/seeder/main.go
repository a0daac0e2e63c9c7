package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ammerola/bi-dashboard/internal/adapters/db"
	redis_a "github.com/ammerola/bi-dashboard/internal/adapters/redis_adapter"
	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
	"github.com/ammerola/bi-dashboard/internal/core/services"
	"github.com/ammerola/bi-dashboard/internal/pkg/config"
	"github.com/ammerola/bi-dashboard/internal/pkg/logger"
	"github.com/ammerola/bi-dashboard/migrations"
)

func main() {
	var (
		logLevel      = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun        = flag.Bool("dry-run", false, "Generate a dataset and report its shape without touching the database")
		adminEmail    = flag.String("admin-email", "", "Create an administrator with this email if it does not exist")
		adminPassword = flag.String("admin-password", "", "Password for -admin-email")
		skipETL       = flag.Bool("skip-etl", false, "Do not regenerate the dataset")
	)
	flag.Parse()

	appLogger := logger.SetupLogger(*logLevel, "text")
	defer appLogger.Close()
	slogger := appLogger.Logger

	if *adminEmail != "" && len(*adminPassword) < domain.MinPasswordLength {
		slogger.Error("admin password too short", slog.Int("min_length", domain.MinPasswordLength))
		os.Exit(2)
	}

	if *dryRun {
		if err := previewDataset(); err != nil {
			slogger.Error("failed to generate dataset", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Println("\n[DRY RUN] No changes were made to the database")
		return
	}

	ctx := context.Background()

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		Source:      migrations.FS,
	}, slogger, 3); err != nil {
		slogger.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	database, err := db.NewDatabase(ctx, &db.Config{
		URL:            cfg.GetDatabaseURL(),
		MaxConnections: 4,
		MinConnections: 1,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	}, slogger)
	if err != nil {
		slogger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	if *adminEmail != "" {
		users := services.NewUserService(db.NewUserRepository(database, slogger), cfg.Security.BcryptCost, slogger)
		if err := ensureAdmin(ctx, users, *adminEmail, *adminPassword, slogger); err != nil {
			slogger.Error("failed to create administrator", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if *skipETL {
		slogger.Info("dataset refresh skipped")
		return
	}

	reports := services.NewReportService(
		db.NewSalesRepository(database, slogger),
		db.NewProductRepository(database, slogger),
		db.NewCustomerRepository(database, slogger),
		optionalCache(ctx, cfg, slogger),
		cfg.Redis.CacheTTL,
		slogger,
	)
	etl := services.NewETLService(db.NewDatasetRepository(database, slogger), reports, nil, slogger)

	start := time.Now()
	counts, err := etl.Run(ctx)
	if err != nil {
		slogger.Error("dataset refresh failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	printSummary("SEEDING OPERATION SUMMARY", counts, time.Since(start))
}

// ensureAdmin creates the account, or leaves an existing one untouched
func ensureAdmin(ctx context.Context, users ports.UserService, email, password string, logger *slog.Logger) error {
	user, err := users.Create(ctx, domain.CreateUserInput{
		Name:     "Administrator",
		Email:    email,
		Password: password,
		Role:     domain.RoleAdmin,
	})
	if errors.Is(err, domain.ErrDuplicate) {
		logger.Info("administrator already exists", slog.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("administrator created",
		slog.String("email", user.Email),
		slog.String("user_id", user.ID.String()))
	return nil
}

// optionalCache connects to Redis so the refresh can invalidate cached
// aggregates. The seeder still runs when Redis is down.
func optionalCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) ports.CacheRepository {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.GetRedisAddress(),
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: cfg.Redis.DialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, cached aggregates will expire on their own",
			slog.String("error", err.Error()))
		client.Close()
		return nil
	}
	return redis_a.NewCache(client, cfg.Redis.CacheTTL, logger)
}

func previewDataset() error {
	start := time.Now()
	data, err := services.NewGenerator(nil, nil).Generate()
	if err != nil {
		return err
	}

	counts := &domain.DatasetCounts{
		Products:  int64(len(data.Products)),
		Customers: int64(len(data.Customers)),
		Sales:     int64(len(data.Sales)),
	}
	printSummary("DRY RUN DATASET PREVIEW", counts, time.Since(start))

	byRegion := map[domain.Region]int{}
	for _, s := range data.Sales {
		byRegion[s.Region]++
	}
	regions := make([]string, 0, len(byRegion))
	for r := range byRegion {
		regions = append(regions, string(r))
	}
	sort.Strings(regions)

	fmt.Println("\nSales by region:")
	for _, r := range regions {
		fmt.Printf("  - %s: %d\n", r, byRegion[domain.Region(r)])
	}
	return nil
}

func printSummary(title string, counts *domain.DatasetCounts, elapsed time.Duration) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Products:  %d\n", counts.Products)
	fmt.Printf("Customers: %d\n", counts.Customers)
	fmt.Printf("Sales:     %d\n", counts.Sales)
	fmt.Printf("Elapsed:   %s\n", elapsed.Round(time.Millisecond))
}
