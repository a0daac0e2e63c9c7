package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	cfg, err := Load(quietLogger())
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Security.JWTExpiration)
	assert.Equal(t, 7*24*time.Hour, cfg.Security.JWTRefreshExpiration)
	assert.Equal(t, cfg.Security.JWTSecret, cfg.Security.JWTRefreshSecret)
	assert.Equal(t, "0 * * * *", cfg.ETL.Schedule)
	assert.True(t, cfg.ETL.RunOnStartup)
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, "env", cfg.Secrets.Provider)
	assert.False(t, cfg.Security.AllowAdminRegistration)
	assert.Equal(t, "s3", cfg.Export.Storage)
	assert.Equal(t, "bi-dashboard-exports", cfg.Export.S3Bucket)
}

func TestLoad_DevelopmentUsesLocalExports(t *testing.T) {
	t.Setenv("APP_ENV", "local")

	cfg, err := Load(quietLogger())
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Export.Storage)
	assert.Equal(t, "exports", cfg.Export.LocalPath)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("SERVER_PORT", "8081")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/reports?sslmode=disable")
	t.Setenv("JWT_EXPIRE", "30d")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
	t.Setenv("ETL_RUN_ON_STARTUP", "false")
	t.Setenv("EXPORT_S3_BUCKET", "reports")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example")

	cfg, err := Load(quietLogger())
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "postgres://u:p@db:5432/reports?sslmode=disable", cfg.GetDatabaseURL())
	assert.Equal(t, 30*24*time.Hour, cfg.Security.JWTExpiration)
	assert.Equal(t, "refresh-secret", cfg.Security.JWTRefreshSecret)
	assert.False(t, cfg.ETL.RunOnStartup)
	assert.Equal(t, "reports", cfg.Export.S3Bucket)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Security.AllowedOrigins)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load(quietLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingRequiredConfig))
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "go_duration", input: "90m", want: 90 * time.Minute},
		{name: "days", input: "7d", want: 168 * time.Hour},
		{name: "padded", input: " 1d ", want: 24 * time.Hour},
		{name: "bad_days", input: "xd", wantErr: true},
		{name: "garbage", input: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSecurityValidator(t *testing.T) {
	long := "0123456789abcdef0123456789abcdef"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "short_secret", mutate: func(c *Config) { c.Security.JWTSecret = "short" }, wantErr: "at least 32"},
		{name: "low_bcrypt_cost", mutate: func(c *Config) { c.Security.BcryptCost = 4 }, wantErr: "at least 10"},
		{name: "high_bcrypt_cost", mutate: func(c *Config) { c.Security.BcryptCost = 20 }, wantErr: "exceed 15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Security: SecurityConfig{
				JWTSecret:        long,
				JWTRefreshSecret: long,
				BcryptCost:       12,
			}}
			tt.mutate(cfg)

			err := (&SecurityValidator{}).Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBasicValidator_ExportStorage(t *testing.T) {
	tests := []struct {
		name    string
		export  ExportConfig
		wantErr string
	}{
		{name: "s3", export: ExportConfig{Storage: "s3", S3Bucket: "reports"}},
		{name: "local", export: ExportConfig{Storage: "local", LocalPath: "exports"}},
		{name: "s3_without_bucket", export: ExportConfig{Storage: "s3"}, wantErr: "export S3 bucket"},
		{name: "local_without_path", export: ExportConfig{Storage: "local"}, wantErr: "export local path"},
		{name: "unknown", export: ExportConfig{Storage: "ftp"}, wantErr: "unknown export storage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				App:      AppConfig{Name: "bi-dashboard"},
				Server:   ServerConfig{Port: "5000"},
				Database: DatabaseConfig{Host: "localhost", Name: "bi", MaxConnections: 5, MinConnections: 1},
				Redis:    RedisConfig{Host: "localhost", PoolSize: 5},
				Security: SecurityConfig{
					JWTSecret:            "secret",
					JWTExpiration:        time.Hour,
					JWTRefreshExpiration: time.Hour,
					RateLimitRequests:    10,
				},
				ETL:    ETLConfig{Schedule: "0 * * * *"},
				Export: tt.export,
			}

			err := (&BasicValidator{}).Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

type fakeSecretsClient struct {
	calls  int
	secret string
	err    error
}

func (f *fakeSecretsClient) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(f.secret)}, nil
}

func TestAWSSecretsManager_CachesValues(t *testing.T) {
	client := &fakeSecretsClient{secret: `{"JWT_SECRET":"from-aws","DB_PASSWORD":"pw"}`}
	sm := newAWSSecretsManager(client, "bi/creds", quietLogger())
	ctx := context.Background()

	v, err := sm.GetSecret(ctx, SecretJWT)
	require.NoError(t, err)
	assert.Equal(t, "from-aws", v)

	v, err = sm.GetSecret(ctx, SecretDBPassword)
	require.NoError(t, err)
	assert.Equal(t, "pw", v)
	assert.Equal(t, 1, client.calls)

	_, err = sm.GetSecret(ctx, "MISSING")
	assert.Error(t, err)
}

func TestApplySecrets(t *testing.T) {
	client := &fakeSecretsClient{secret: `{"JWT_SECRET":"aws-jwt","DB_PASSWORD":"aws-pw"}`}
	sm := newAWSSecretsManager(client, "bi/creds", quietLogger())

	cfg := &Config{
		App:      AppConfig{Name: "bi-dashboard", Environment: "test"},
		Server:   ServerConfig{Port: "5000"},
		Database: DatabaseConfig{Host: "localhost", Name: "bi", MaxConnections: 5, MinConnections: 1},
		Redis:    RedisConfig{Host: "localhost", PoolSize: 5},
		Security: SecurityConfig{
			JWTSecret:            "env-jwt",
			JWTExpiration:        time.Hour,
			JWTRefreshExpiration: time.Hour,
			RateLimitRequests:    10,
		},
		ETL:    ETLConfig{Schedule: "0 * * * *"},
		Export: ExportConfig{Storage: "local", LocalPath: "exports"},
	}

	require.NoError(t, ApplySecrets(context.Background(), cfg, sm))
	assert.Equal(t, "aws-jwt", cfg.Security.JWTSecret)
	assert.Equal(t, "aws-jwt", cfg.Security.JWTRefreshSecret)
	assert.Equal(t, "aws-pw", cfg.Database.Password)
}
