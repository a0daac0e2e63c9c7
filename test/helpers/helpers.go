// test/helpers/helpers.go
package helpers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/bi-dashboard/internal/adapters/db"
	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
	"github.com/ammerola/bi-dashboard/internal/pkg/config"
	"github.com/ammerola/bi-dashboard/migrations"
)

// TestDB represents a test database instance
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	level := slog.LevelError
	if testing.Verbose() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// SetupTestDB starts a PostgreSQL container and applies the embedded
// migrations. Skipped under -short.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_dashboard",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	dbConfig := &db.Config{
		Host:               "localhost",
		Port:               resource.GetPort("5432/tcp"),
		User:               "test",
		Password:           "test",
		Database:           "test_dashboard",
		SSLMode:            "disable",
		MaxConnections:     5,
		MinConnections:     1,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    30 * time.Minute,
		HealthCheckPeriod:  time.Minute,
		ConnectTimeout:     10 * time.Second,
		EnableQueryLogging: testing.Verbose(),
	}

	var database *db.Database
	pool.MaxWait = 2 * time.Minute
	err = pool.Retry(func() error {
		ctx := context.Background()
		var err error
		database, err = db.NewDatabase(ctx, dbConfig, TestLogger())
		if err != nil {
			return err
		}
		return database.Ping(ctx)
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")
	t.Cleanup(database.Close)

	err = db.RunMigrationsWithRetry(context.Background(), &db.MigrationConfig{
		DatabaseURL: dbConfig.DSN(),
		Source:      migrations.FS,
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}, TestLogger(), 3)
	require.NoError(t, err, "Could not run migrations")

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// SetupTestRedis creates an in-memory Redis for testing
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		client.Close()
	})

	return &TestRedis{Client: client, Server: mr}
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "test-api",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
		},
		Server: config.ServerConfig{
			Host:         "localhost",
			Port:         "5000",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Database: config.DatabaseConfig{
			Host:           "localhost",
			Port:           "5432",
			User:           "test",
			Password:       "test",
			Name:           "test_dashboard",
			SSLMode:        "disable",
			MaxConnections: 10,
			MinConnections: 2,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			PoolSize: 10,
			CacheTTL: 5 * time.Minute,
		},
		Security: config.SecurityConfig{
			JWTSecret:            "test-secret-test-secret-test-secret",
			JWTExpiration:        time.Hour,
			JWTRefreshSecret:     "test-refresh-secret-test-refresh-secret",
			JWTRefreshExpiration: 7 * 24 * time.Hour,
			BcryptCost:           4,
			RateLimitRequests:    100,
			RateLimitDuration:    time.Minute,
			AllowedOrigins:       []string{"*"},
			RequestIDHeader:      "X-Request-ID",
		},
		ETL: config.ETLConfig{
			Schedule:     "0 * * * *",
			RunOnStartup: false,
			Timeout:      time.Minute,
		},
		Export: config.ExportConfig{
			S3Bucket:  "test-exports",
			Region:    "us-east-1",
			URLExpiry: time.Hour,
			Retention: 7 * 24 * time.Hour,
		},
		Secrets: config.SecretsConfig{Provider: "env"},
	}
}

// CreateTestProduct creates a prepared product
func CreateTestProduct(overrides ...func(*domain.Product)) *domain.Product {
	p := &domain.Product{
		Name:          "Laptop Pro",
		Category:      "Electronics",
		Price:         decimal.RequireFromString("1299.99"),
		Description:   "High quality laptop pro",
		SKU:           "ELE-" + uuid.NewString()[:8],
		StockQuantity: 25,
		Unit:          domain.UnitPiece,
		Manufacturer:  "Acme",
	}
	for _, override := range overrides {
		override(p)
	}
	p.PrepareForStorage()
	return p
}

// CreateTestCustomer creates a prepared customer
func CreateTestCustomer(overrides ...func(*domain.Customer)) *domain.Customer {
	c := &domain.Customer{
		Name:   "Jane Doe",
		Email:  fmt.Sprintf("jane.%s@example.com", uuid.NewString()[:8]),
		Region: domain.RegionNorth,
		Address: domain.Address{
			Street:  "1 Main St",
			City:    "Springfield",
			State:   "IL",
			ZipCode: "62701",
		},
		CustomerType: domain.CustomerIndividual,
		Status:       domain.CustomerActive,
	}
	for _, override := range overrides {
		override(c)
	}
	c.PrepareForStorage()
	return c
}

// CreateTestSale creates a completed sale of product to customer
func CreateTestSale(product *domain.Product, customer *domain.Customer, overrides ...func(*domain.Sale)) *domain.Sale {
	s := domain.NewSale(product, customer, decimal.RequireFromString("100.00"),
		time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC), domain.PaymentCreditCard)
	for _, override := range overrides {
		override(s)
	}
	s.PrepareForStorage()
	return s
}

// CreateTestUser creates a prepared user with a known password
func CreateTestUser(t *testing.T, role domain.Role, password string) *domain.User {
	t.Helper()

	u := &domain.User{
		Name:  "Test " + string(role),
		Email: fmt.Sprintf("%s.%s@example.com", role, uuid.NewString()[:8]),
		Role:  role,
	}
	require.NoError(t, u.SetPassword(password, 4))
	u.PrepareForStorage()
	return u
}

// SeedDataset replaces the generated collections with the given rows
func SeedDataset(t *testing.T, database *db.Database, data *domain.Dataset) {
	t.Helper()

	repo := db.NewDatasetRepository(database, TestLogger())
	err := repo.Refresh(context.Background(), func(w ports.DatasetWriter) error {
		ctx := context.Background()
		if _, err := w.ReplaceProducts(ctx, data.Products); err != nil {
			return err
		}
		if _, err := w.ReplaceCustomers(ctx, data.Customers); err != nil {
			return err
		}
		_, err := w.ReplaceSales(ctx, data.Sales)
		return err
	})
	require.NoError(t, err, "Failed to seed dataset")
}

// TruncateAllTables truncates all tables in the test database
func TruncateAllTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), "TRUNCATE TABLE sales, customers, products, users CASCADE")
	require.NoError(t, err, "Failed to truncate tables")
}

// AssertEventuallyWithTimeout asserts that a condition is met within a timeout
func AssertEventuallyWithTimeout(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Errorf("Condition not met within %v: %s", timeout, msg)
}
