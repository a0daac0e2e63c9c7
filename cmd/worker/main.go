// cmd/worker/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/bi-dashboard/internal/adapters/db"
	redis_a "github.com/ammerola/bi-dashboard/internal/adapters/redis_adapter"
	"github.com/ammerola/bi-dashboard/internal/adapters/storage"
	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
	"github.com/ammerola/bi-dashboard/internal/core/services"
	"github.com/ammerola/bi-dashboard/internal/pkg/config"
	"github.com/ammerola/bi-dashboard/internal/pkg/logger"
	"github.com/ammerola/bi-dashboard/internal/workers"
)

func main() {
	bootLogger := logger.SetupLogger("info", "json")

	cfg, err := config.Load(bootLogger.Logger)
	if err != nil {
		bootLogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	appLogger := logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	defer appLogger.Close()
	slogger := appLogger.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
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

	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("redis_addr", cfg.GetRedisAddress()))

	database, err := initDatabase(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

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
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slogger.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}

	archive, err := newArchive(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize export storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.GetRedisAddress(),
		Password: cfg.Redis.Password,
		DB:       cfg.Asynq.RedisDB,
	}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()
	queue := workers.NewClient(asynqClient, cfg.ETL.Timeout)

	// Repositories and services
	cache := redis_a.NewCache(redisClient, cfg.Redis.CacheTTL, slogger)
	jobs := redis_a.NewExportJobStore(cache, cfg.Export.Retention)
	reports := services.NewReportService(
		db.NewSalesRepository(database, slogger),
		db.NewProductRepository(database, slogger),
		db.NewCustomerRepository(database, slogger),
		cache,
		cfg.Redis.CacheTTL,
		slogger,
	)
	etl := services.NewETLService(db.NewDatasetRepository(database, slogger), reports, nil, slogger)

	mux := workers.NewServeMux(workers.Processors{
		ETL:       workers.NewETLProcessor(etl, queue, slogger),
		Analytics: workers.NewAnalyticsProcessor(reports, slogger),
		Export:    workers.NewExportProcessor(reports, archive, jobs, cfg.Export.URLExpiry, slogger),
		Cleanup:   workers.NewCleanupProcessor(archive, cfg.Export.Retention, slogger),
	})

	srv := workers.NewServer(redisOpt, workers.ServerConfig{
		Concurrency:     cfg.Asynq.Concurrency,
		Queues:          cfg.Asynq.Queues,
		StrictPriority:  cfg.Asynq.StrictPriority,
		ShutdownTimeout: cfg.Asynq.ShutdownTimeout,
	}, slogger)

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: time.UTC,
		Logger:   workers.NewAsynqLogger(slogger),
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
				slogger.Error("scheduled enqueue failed", slog.String("error", err.Error()))
			}
		},
	})
	if err := workers.RegisterSchedules(scheduler, workers.ScheduleConfig{
		ETL:        cfg.ETL.Schedule,
		Cleanup:    cfg.Export.CleanupSchedule,
		ETLTimeout: cfg.ETL.Timeout,
	}, slogger); err != nil {
		slogger.Error("failed to register schedules", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(mux); err != nil {
		slogger.Error("failed to run worker server", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := scheduler.Start(); err != nil {
		slogger.Error("failed to run scheduler", slog.String("error", err.Error()))
		srv.Shutdown()
		os.Exit(1)
	}

	if cfg.ETL.RunOnStartup {
		enqueueStartupRefresh(ctx, queue, slogger)
	}

	slogger.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues),
		slog.String("etl_schedule", cfg.ETL.Schedule))

	<-ctx.Done()
	slogger.Info("shutdown signal received")

	scheduler.Shutdown()
	srv.Shutdown()
	slogger.Info("worker shutdown complete")
}

// enqueueStartupRefresh seeds an empty deployment without waiting for the
// first cron tick
func enqueueStartupRefresh(ctx context.Context, queue ports.TaskQueue, logger *slog.Logger) {
	id, err := queue.EnqueueETL(ctx)
	switch {
	case errors.Is(err, domain.ErrDuplicate):
		logger.Info("startup refresh skipped, a refresh is already queued")
	case err != nil:
		logger.Error("failed to enqueue startup refresh", slog.String("error", err.Error()))
	default:
		logger.Info("startup refresh queued", slog.String("task_id", id))
	}
}

func newArchive(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.ExportArchive, error) {
	if cfg.Export.Storage == "local" {
		if err := os.MkdirAll(cfg.Export.LocalPath, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create export directory: %w", err)
		}
		return storage.NewLocalStorage(cfg.Export.LocalPath, "/files", logger), nil
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
		return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
	}
	return s3Storage, nil
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*db.Database, error) {
	dbConfig := &db.Config{
		URL:                cfg.Database.URL,
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     10, // Fewer connections for worker
		MinConnections:     2,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}

	return db.NewDatabase(ctx, dbConfig, logger)
}
