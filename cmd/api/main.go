// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/bi-dashboard/internal/adapters/db"
	redis_a "github.com/ammerola/bi-dashboard/internal/adapters/redis_adapter"
	"github.com/ammerola/bi-dashboard/internal/adapters/storage"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
	"github.com/ammerola/bi-dashboard/internal/core/services"
	"github.com/ammerola/bi-dashboard/internal/handlers"
	"github.com/ammerola/bi-dashboard/internal/handlers/middleware"
	"github.com/ammerola/bi-dashboard/internal/pkg/config"
	"github.com/ammerola/bi-dashboard/internal/pkg/logger"
	"github.com/ammerola/bi-dashboard/internal/workers"
	"github.com/ammerola/bi-dashboard/migrations"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

// requestTimeout bounds every API request; exports stream larger bodies
const requestTimeout = 30 * time.Second

func main() {
	bootLogger := logger.SetupLogger("info", "json")

	bootLogger.Info("starting bi dashboard api",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(bootLogger.Logger)
	if err != nil {
		bootLogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	appLogger := logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	defer appLogger.Close()
	slogger := appLogger.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	sm, err := config.NewSecretsManager(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to create secrets manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := config.ApplySecrets(ctx, cfg, sm); err != nil {
		slogger.Error("failed to apply secrets", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
		slog.String("export_storage", cfg.Export.Storage),
	)

	if err := runMigrations(ctx, cfg, slogger); err != nil {
		slogger.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	server := setupHTTPServer(ctx, cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.GetServerAddress()),
			slog.Bool("tls", cfg.Server.TLSEnabled),
		)

		if cfg.Server.TLSEnabled {
			serverErrors <- server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case <-ctx.Done():
		slogger.Info("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	database       *db.Database
	redisClient    *redis.Client
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector
	archive        ports.ExportArchive
	files          http.Handler
	routes         handlers.Routes
}

func (d *dependencies) cleanup() {
	if d.asynqInspector != nil {
		d.asynqInspector.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.database != nil {
		d.database.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	database, err := db.NewDatabase(ctx, databaseConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	logger.Info("connecting to Redis", slog.String("address", cfg.GetRedisAddress()))

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddress(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		deps.cleanup()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	deps.redisClient = redisClient

	cache := redis_a.NewCache(redisClient, cfg.Redis.CacheTTL, logger)
	jobs := redis_a.NewExportJobStore(cache, cfg.Export.Retention)

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     cfg.GetRedisAddress(),
		Password: cfg.Redis.Password,
		DB:       cfg.Asynq.RedisDB,
	}
	deps.asynqClient = asynq.NewClient(asynqRedisOpt)
	deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)
	queue := workers.NewClient(deps.asynqClient, cfg.ETL.Timeout)

	archive, files, err := newArchive(ctx, cfg, logger)
	if err != nil {
		deps.cleanup()
		return nil, err
	}
	deps.archive = archive
	deps.files = files

	// Repositories
	salesRepo := db.NewSalesRepository(database, logger)
	productRepo := db.NewProductRepository(database, logger)
	customerRepo := db.NewCustomerRepository(database, logger)
	userRepo := db.NewUserRepository(database, logger)

	// Services
	reports := services.NewReportService(salesRepo, productRepo, customerRepo, cache, cfg.Redis.CacheTTL, logger)
	tokens := services.NewTokenManager(services.TokenConfig{
		Secret:            cfg.Security.JWTSecret,
		RefreshSecret:     cfg.Security.JWTRefreshSecret,
		AccessExpiration:  cfg.Security.JWTExpiration,
		RefreshExpiration: cfg.Security.JWTRefreshExpiration,
	})
	auth := services.NewAuthService(userRepo, tokens, redis_a.NewTokenBlacklist(cache), services.AuthConfig{
		BcryptCost:             cfg.Security.BcryptCost,
		AllowAdminRegistration: cfg.Security.AllowAdminRegistration,
	}, logger)
	users := services.NewUserService(userRepo, cfg.Security.BcryptCost, logger)

	checks := map[string]handlers.HealthCheck{
		"database": database.Ping,
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
		"storage": archive.Ping,
	}

	deps.routes = handlers.Routes{
		Auth:         handlers.NewAuthHandler(auth, logger),
		Dashboard:    handlers.NewDashboardHandler(reports, logger),
		Sales:        handlers.NewSalesHandler(reports, logger),
		Export:       handlers.NewExportHandler(reports, queue, jobs, logger),
		Users:        handlers.NewUsersHandler(users, logger),
		ETL:          handlers.NewETLHandler(queue, logger),
		Health:       handlers.NewHealthHandler(Version, cfg.App.Environment, checks, deps.asynqInspector, logger),
		Authenticate: middleware.Authenticate(auth, logger),
		Files:        deps.files,
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// newArchive selects the export archive. Local storage also returns the
// handler that serves its files.
func newArchive(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.ExportArchive, http.Handler, error) {
	if cfg.Export.Storage == "local" {
		if err := os.MkdirAll(cfg.Export.LocalPath, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create export directory: %w", err)
		}
		local := storage.NewLocalStorage(cfg.Export.LocalPath, "/files", logger)
		return local, local.FileServer(), nil
	}

	s3Storage, err := storage.NewS3Storage(ctx, &storage.S3Config{
		Region:          cfg.Export.Region,
		Bucket:          cfg.Export.S3Bucket,
		AccessKeyID:     cfg.Export.AccessKeyID,
		SecretAccessKey: cfg.Export.SecretAccessKey,
		Endpoint:        cfg.Export.S3Endpoint,
		UsePathStyle:    cfg.Export.UsePathStyle,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
	}
	return s3Storage, nil, nil
}

func databaseConfig(cfg *config.Config) *db.Config {
	return &db.Config{
		URL:                cfg.Database.URL,
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}
}

func setupHTTPServer(ctx context.Context, cfg *config.Config, deps *dependencies, logger *slog.Logger) *http.Server {
	mux := handlers.NewRouter(deps.routes)

	mws := []func(http.Handler) http.Handler{
		middleware.Recovery(logger),
		middleware.RequestID(cfg.Security.RequestIDHeader),
		middleware.Logger(logger),
	}
	if cfg.Security.SecureHeaders {
		mws = append(mws, middleware.SecureHeaders)
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		mws = append(mws, middleware.CORS(cfg.Security.AllowedOrigins, cfg.Security.RequestIDHeader))
	}
	if cfg.Security.RateLimitRequests > 0 {
		mws = append(mws, middleware.RateLimit(ctx, cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration))
	}
	mws = append(mws, middleware.Compression, middleware.Timeout(requestTimeout))

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        middleware.Chain(mux, mws...),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("running database migrations")

	migrationConfig := &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		Source:      migrations.FS,
		SourcePath:  cfg.Database.MigrationPath,
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}

	return db.RunMigrationsWithRetry(ctx, migrationConfig, logger, 3)
}
