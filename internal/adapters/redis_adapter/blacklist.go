// internal/adapters/redis_adapter/blacklist.go
package redis_a

import (
	"context"
	"fmt"
	"time"

	"github.com/ammerola/bi-dashboard/internal/core/ports"
)

// TokenBlacklist keeps revoked token ids in Redis until they expire
type TokenBlacklist struct {
	cache *Cache
}

var _ ports.TokenBlacklist = (*TokenBlacklist)(nil)

// NewTokenBlacklist creates a blacklist backed by cache
func NewTokenBlacklist(cache *Cache) *TokenBlacklist {
	return &TokenBlacklist{cache: cache}
}

// Revoke blacklists tokenID for ttl. A token already past expiry needs no entry.
func (b *TokenBlacklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.cache.SetWithTTL(ctx, BuildKey(PrefixBlacklist, tokenID), true, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (b *TokenBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return b.cache.Exists(ctx, BuildKey(PrefixBlacklist, tokenID))
}
