// internal/core/ports/cache.go
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
)

// ErrCacheMiss is returned by CacheRepository.Get when key is absent
var ErrCacheMiss = errors.New("cache miss")

// CacheRepository defines the interface for cache operations.
// Values are stored as JSON.
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}) error
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
	Incr(ctx context.Context, key string) (int64, error)
	Exists(ctx context.Context, keys ...string) (bool, error)

	// GetOrSet loads key into dest, calling fetch and storing its result on a miss
	GetOrSet(ctx context.Context, key string, dest interface{},
		fetch func() (interface{}, error), ttl time.Duration) error

	TTL(ctx context.Context, key string) (time.Duration, error)
	Ping(ctx context.Context) error
}

// TokenBlacklist records revoked token ids until the token would have
// expired anyway. Shared by every API instance.
type TokenBlacklist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// ExportJobStore tracks archived export jobs for status polling
type ExportJobStore interface {
	Save(ctx context.Context, job *domain.ExportJob) error
	Get(ctx context.Context, id string) (*domain.ExportJob, error)
}
