// internal/pkg/config/config.go
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Asynq    AsynqConfig
	Security SecurityConfig
	ETL      ETLConfig
	Export   ExportConfig
	Secrets  SecretsConfig
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `required:"true"`
	Environment string // development, staging, production
	Version     string
	LogLevel    string
	LogFormat   string // json, text
	Debug       bool
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string `required:"true"`
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	GracefulTimeout time.Duration
	TLSEnabled      bool
	TLSCertFile     string
	TLSKeyFile      string
}

// DatabaseConfig holds database configuration. URL wins over the
// individual fields when set.
type DatabaseConfig struct {
	URL                string
	Host               string `required:"true"`
	Port               string
	User               string
	Password           string
	Name               string `required:"true"`
	SSLMode            string
	MaxConnections     int32
	MinConnections     int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	EnableQueryLogging bool
	MigrationPath      string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string `required:"true"`
	Port         string
	Password     string
	DB           int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	// CacheTTL bounds how long dashboard aggregates are served from cache
	CacheTTL time.Duration
}

// AsynqConfig holds Asynq configuration
type AsynqConfig struct {
	RedisDB         int
	Concurrency     int
	Queues          map[string]int // queue name -> priority
	StrictPriority  bool
	ShutdownTimeout time.Duration
}

// SecurityConfig holds credential and request-limiting settings
type SecurityConfig struct {
	JWTSecret              string
	JWTExpiration          time.Duration
	JWTRefreshSecret       string
	JWTRefreshExpiration   time.Duration
	BcryptCost             int
	AllowAdminRegistration bool
	RateLimitRequests      int
	RateLimitDuration      time.Duration
	AllowedOrigins         []string
	SecureHeaders          bool
	RequestIDHeader        string
}

// ETLConfig controls the scheduled data refresh
type ETLConfig struct {
	Schedule     string
	RunOnStartup bool
	Timeout      time.Duration
}

// ExportConfig controls archived spreadsheet exports
type ExportConfig struct {
	Storage         string // s3, local
	LocalPath       string
	S3Bucket        string
	Region          string
	S3Endpoint      string // MinIO in development
	UsePathStyle    bool
	AccessKeyID     string
	SecretAccessKey string
	URLExpiry       time.Duration
	Retention       time.Duration
	CleanupSchedule string
}

// SecretsConfig selects where credentials are resolved from
type SecretsConfig struct {
	Provider      string // env, aws
	AWSSecretName string
	AWSRegion     string
}

// Load reads configuration from the environment, and from .env in development
func Load(logger *slog.Logger) (*Config, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env == "development" || env == "local" {
		if err := godotenv.Load(); err != nil {
			logger.Warn("no .env file found, using environment variables",
				slog.String("error", err.Error()))
		} else {
			logger.Info(".env file loaded successfully")
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v, env)

	cfg := &Config{
		App: AppConfig{
			Name:        v.GetString("app.name"),
			Environment: env,
			Version:     v.GetString("app.version"),
			LogLevel:    v.GetString("log.level"),
			LogFormat:   v.GetString("log.format"),
			Debug:       v.GetBool("app.debug"),
		},
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Port:            v.GetString("server.port"),
			ReadTimeout:     getDuration(v, "server.read.timeout"),
			WriteTimeout:    getDuration(v, "server.write.timeout"),
			IdleTimeout:     getDuration(v, "server.idle.timeout"),
			MaxHeaderBytes:  v.GetInt("server.max.header.bytes"),
			GracefulTimeout: getDuration(v, "server.graceful.timeout"),
			TLSEnabled:      v.GetBool("tls.enabled"),
			TLSCertFile:     v.GetString("tls.cert.file"),
			TLSKeyFile:      v.GetString("tls.key.file"),
		},
		Database: DatabaseConfig{
			URL:                v.GetString("database.url"),
			Host:               v.GetString("db.host"),
			Port:               v.GetString("db.port"),
			User:               v.GetString("db.user"),
			Password:           v.GetString("db.password"),
			Name:               v.GetString("db.name"),
			SSLMode:            v.GetString("db.ssl.mode"),
			MaxConnections:     v.GetInt32("db.max.connections"),
			MinConnections:     v.GetInt32("db.min.connections"),
			MaxConnLifetime:    getDuration(v, "db.connection.lifetime"),
			MaxConnIdleTime:    getDuration(v, "db.idle.time"),
			HealthCheckPeriod:  getDuration(v, "db.health.check.period"),
			ConnectTimeout:     getDuration(v, "db.connect.timeout"),
			EnableQueryLogging: v.GetBool("db.query.logging"),
			MigrationPath:      v.GetString("db.migration.path"),
		},
		Redis: RedisConfig{
			Host:         v.GetString("redis.host"),
			Port:         v.GetString("redis.port"),
			Password:     v.GetString("redis.password"),
			DB:           v.GetInt("redis.db"),
			MaxRetries:   v.GetInt("redis.max.retries"),
			DialTimeout:  getDuration(v, "redis.dial.timeout"),
			ReadTimeout:  getDuration(v, "redis.read.timeout"),
			WriteTimeout: getDuration(v, "redis.write.timeout"),
			PoolSize:     v.GetInt("redis.pool.size"),
			MinIdleConns: v.GetInt("redis.min.idle.conns"),
			CacheTTL:     getDuration(v, "redis.cache.ttl"),
		},
		Asynq: AsynqConfig{
			RedisDB:         v.GetInt("asynq.redis.db"),
			Concurrency:     v.GetInt("asynq.concurrency"),
			Queues:          parseQueues(v.GetString("asynq.queues")),
			StrictPriority:  v.GetBool("asynq.strict.priority"),
			ShutdownTimeout: getDuration(v, "asynq.shutdown.timeout"),
		},
		Security: SecurityConfig{
			JWTSecret:              v.GetString("jwt.secret"),
			JWTExpiration:          getDuration(v, "jwt.expire"),
			JWTRefreshSecret:       v.GetString("jwt.refresh.secret"),
			JWTRefreshExpiration:   getDuration(v, "jwt.refresh.expire"),
			BcryptCost:             v.GetInt("bcrypt.cost"),
			AllowAdminRegistration: v.GetBool("security.allow.admin.registration"),
			RateLimitRequests:      v.GetInt("rate.limit.requests"),
			RateLimitDuration:      getDuration(v, "rate.limit.duration"),
			AllowedOrigins:         getSlice(v, "allowed.origins"),
			SecureHeaders:          v.GetBool("secure.headers"),
			RequestIDHeader:        v.GetString("request.id.header"),
		},
		ETL: ETLConfig{
			Schedule:     v.GetString("etl.schedule"),
			RunOnStartup: v.GetBool("etl.run.on.startup"),
			Timeout:      getDuration(v, "etl.timeout"),
		},
		Export: ExportConfig{
			Storage:         v.GetString("export.storage"),
			LocalPath:       v.GetString("export.local.path"),
			S3Bucket:        v.GetString("export.s3.bucket"),
			Region:          v.GetString("aws.region"),
			S3Endpoint:      v.GetString("aws.s3.endpoint"),
			UsePathStyle:    v.GetBool("aws.s3.path.style"),
			AccessKeyID:     v.GetString("aws.access.key.id"),
			SecretAccessKey: v.GetString("aws.secret.access.key"),
			URLExpiry:       getDuration(v, "export.url.expiry"),
			Retention:       getDuration(v, "export.retention"),
			CleanupSchedule: v.GetString("export.cleanup.schedule"),
		},
		Secrets: SecretsConfig{
			Provider:      v.GetString("secrets.provider"),
			AWSSecretName: v.GetString("secrets.aws.name"),
			AWSRegion:     v.GetString("aws.region"),
		},
	}

	if cfg.Security.JWTRefreshSecret == "" {
		cfg.Security.JWTRefreshSecret = cfg.Security.JWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate runs the basic checks, and the strict ones in production
func (c *Config) Validate() error {
	validators := []Validator{&BasicValidator{}}
	if c.IsProduction() {
		validators = append(validators, &ProductionValidator{}, &SecurityValidator{})
	}

	for _, v := range validators {
		if err := v.Validate(c); err != nil {
			return err
		}
	}
	return nil
}

// GetDatabaseURL returns the connection string, preferring DATABASE_URL
func (c *Config) GetDatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the formatted server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// GetRedisAddress returns host:port for go-redis and asynq
func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "local"
}

func setDefaults(v *viper.Viper, env string) {
	dev := env == "development" || env == "local"

	v.SetDefault("app.name", "bi-dashboard")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.debug", dev)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.read.timeout", "15s")
	v.SetDefault("server.write.timeout", "60s")
	v.SetDefault("server.idle.timeout", "60s")
	v.SetDefault("server.max.header.bytes", 1<<20)
	v.SetDefault("server.graceful.timeout", "30s")
	v.SetDefault("tls.enabled", false)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "dashboard")
	v.SetDefault("db.password", "dashboard_dev")
	v.SetDefault("db.name", "bi_dashboard")
	v.SetDefault("db.ssl.mode", "disable")
	v.SetDefault("db.max.connections", 25)
	v.SetDefault("db.min.connections", 5)
	v.SetDefault("db.connection.lifetime", "1h")
	v.SetDefault("db.idle.time", "30m")
	v.SetDefault("db.health.check.period", "1m")
	v.SetDefault("db.connect.timeout", "10s")
	v.SetDefault("db.query.logging", dev)
	v.SetDefault("db.migration.path", "migrations")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max.retries", 3)
	v.SetDefault("redis.dial.timeout", "5s")
	v.SetDefault("redis.read.timeout", "3s")
	v.SetDefault("redis.write.timeout", "3s")
	v.SetDefault("redis.pool.size", 10)
	v.SetDefault("redis.min.idle.conns", 2)
	v.SetDefault("redis.cache.ttl", "5m")

	v.SetDefault("asynq.redis.db", 0)
	v.SetDefault("asynq.concurrency", 5)
	v.SetDefault("asynq.queues", "critical:6,default:3,low:1")
	v.SetDefault("asynq.strict.priority", false)
	v.SetDefault("asynq.shutdown.timeout", "30s")

	v.SetDefault("jwt.secret", generateDefaultSecret(env))
	v.SetDefault("jwt.expire", "24h")
	v.SetDefault("jwt.refresh.expire", "7d")
	v.SetDefault("bcrypt.cost", 10)
	v.SetDefault("security.allow.admin.registration", false)
	v.SetDefault("rate.limit.requests", 100)
	v.SetDefault("rate.limit.duration", "1m")
	v.SetDefault("allowed.origins", "*")
	v.SetDefault("secure.headers", env == "production")
	v.SetDefault("request.id.header", "X-Request-ID")

	v.SetDefault("etl.schedule", "0 * * * *")
	v.SetDefault("etl.run.on.startup", true)
	v.SetDefault("etl.timeout", "5m")

	if dev {
		v.SetDefault("export.storage", "local")
	} else {
		v.SetDefault("export.storage", "s3")
	}
	v.SetDefault("export.local.path", "exports")
	v.SetDefault("export.s3.bucket", "bi-dashboard-exports")
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.s3.path.style", dev)
	v.SetDefault("export.url.expiry", "24h")
	v.SetDefault("export.retention", "7d")
	v.SetDefault("export.cleanup.schedule", "30 3 * * *")

	v.SetDefault("secrets.provider", "env")
	v.SetDefault("secrets.aws.name", "bi-dashboard/credentials")
}

// getDuration accepts Go durations plus a whole-day suffix ("7d")
func getDuration(v *viper.Viper, key string) time.Duration {
	d, err := ParseDuration(v.GetString(key))
	if err != nil {
		return 0
	}
	return d
}

// ParseDuration extends time.ParseDuration with a "d" (24h) unit
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

func getSlice(v *viper.Viper, key string) []string {
	raw := v.GetString(key)
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseQueues(queuesStr string) map[string]int {
	queues := make(map[string]int)
	pairs := strings.Split(queuesStr, ",")
	for _, pair := range pairs {
		parts := strings.Split(pair, ":")
		if len(parts) == 2 {
			name := strings.TrimSpace(parts[0])
			priority, err := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err == nil {
				queues[name] = priority
			}
		}
	}
	if len(queues) == 0 {
		queues["default"] = 1
	}
	return queues
}

func generateDefaultSecret(env string) string {
	if env == "production" {
		return "" // Force error in production if not set
	}
	return "development-secret-change-in-production"
}
