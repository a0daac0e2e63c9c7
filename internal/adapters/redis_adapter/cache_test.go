package redis_a_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redis_a "github.com/ammerola/bi-dashboard/internal/adapters/redis_adapter"
	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/test/helpers"
)

func newCache(t *testing.T) (*redis_a.Cache, *helpers.TestRedis) {
	t.Helper()
	r := helpers.SetupTestRedis(t)
	return redis_a.NewCache(r.Client, 5*time.Minute, helpers.TestLogger()), r
}

func TestCache_SetAndGet(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	summary := domain.SalesSummary{
		TotalSales:        3,
		TotalRevenue:      decimal.RequireFromString("300.50"),
		AverageOrderValue: decimal.RequireFromString("100.17"),
		MinOrderValue:     decimal.RequireFromString("50"),
		MaxOrderValue:     decimal.RequireFromString("200.25"),
	}

	tests := []struct {
		name  string
		key   string
		value interface{}
		dest  func() interface{}
		check func(t *testing.T, got interface{})
	}{
		{
			name:  "stores_and_retrieves_string",
			key:   "test:string",
			value: "test value",
			dest:  func() interface{} { return new(string) },
			check: func(t *testing.T, got interface{}) {
				assert.Equal(t, "test value", *got.(*string))
			},
		},
		{
			name:  "stores_and_retrieves_summary",
			key:   "test:summary",
			value: summary,
			dest:  func() interface{} { return new(domain.SalesSummary) },
			check: func(t *testing.T, got interface{}) {
				s := got.(*domain.SalesSummary)
				assert.Equal(t, int64(3), s.TotalSales)
				assert.True(t, summary.TotalRevenue.Equal(s.TotalRevenue))
				assert.True(t, summary.MaxOrderValue.Equal(s.MaxOrderValue))
			},
		},
		{
			name: "stores_and_retrieves_breakdown_slice",
			key:  "test:slice",
			value: []domain.RegionBreakdown{
				{Region: "North", Revenue: decimal.NewFromInt(10), Percentage: 25},
				{Region: "South", Revenue: decimal.NewFromInt(30), Percentage: 75},
			},
			dest: func() interface{} { return new([]domain.RegionBreakdown) },
			check: func(t *testing.T, got interface{}) {
				rows := *got.(*[]domain.RegionBreakdown)
				require.Len(t, rows, 2)
				assert.Equal(t, "South", rows[1].Region)
				assert.Equal(t, 75.0, rows[1].Percentage)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, cache.Set(ctx, tt.key, tt.value))

			dest := tt.dest()
			require.NoError(t, cache.Get(ctx, tt.key, dest))
			tt.check(t, dest)
		})
	}
}

func TestCache_SetWithTTL(t *testing.T) {
	ctx := context.Background()
	cache, r := newCache(t)

	require.NoError(t, cache.SetWithTTL(ctx, "ttl:test", "value", time.Second))

	ttl, err := cache.TTL(ctx, "ttl:test")
	require.NoError(t, err)
	assert.Equal(t, time.Second, ttl)

	r.Server.FastForward(2 * time.Second)

	var result string
	err = cache.Get(ctx, "ttl:test", &result)
	assert.ErrorIs(t, err, redis_a.ErrCacheMiss)
}

func TestCache_DeletePattern(t *testing.T) {
	ctx := context.Background()
	cache, r := newCache(t)

	// more keys than one SCAN batch
	for i := 0; i < 250; i++ {
		require.NoError(t, cache.Set(ctx, fmt.Sprintf("dash:kpi:%d", i), i))
	}
	keep := []string{"blacklist:abc", "export:job-1"}
	for _, key := range keep {
		require.NoError(t, cache.Set(ctx, key, "value"))
	}

	require.NoError(t, cache.DeletePattern(ctx, "dash:*"))

	exists, err := cache.Exists(ctx, "dash:kpi:0")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = cache.Exists(ctx, "dash:kpi:249")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = cache.Exists(ctx, keep...)
	require.NoError(t, err)
	assert.True(t, exists)

	var left []string
	for _, k := range r.Server.Keys() {
		if strings.HasPrefix(k, "dash:") {
			left = append(left, k)
		}
	}
	assert.Empty(t, left)
}

func TestCache_Incr(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	var gen int64
	assert.ErrorIs(t, cache.Get(ctx, "dash_generation", &gen), redis_a.ErrCacheMiss)

	n, err := cache.Incr(ctx, "dash_generation")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = cache.Incr(ctx, "dash_generation")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, cache.Get(ctx, "dash_generation", &gen))
	assert.Equal(t, int64(2), gen)

	// counters survive a dashboard sweep
	require.NoError(t, cache.DeletePattern(ctx, "dash:*"))
	require.NoError(t, cache.Get(ctx, "dash_generation", &gen))
	assert.Equal(t, int64(2), gen)
}

func TestCache_GetOrSet(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	fetchCount := 0
	fetch := func() (interface{}, error) {
		fetchCount++
		return []domain.TrendPoint{{Date: "2024-01-02", Sales: decimal.NewFromInt(42)}}, nil
	}

	var first []domain.TrendPoint
	require.NoError(t, cache.GetOrSet(ctx, "dash:trend", &first, fetch, time.Minute))
	require.Len(t, first, 1)
	assert.Equal(t, 1, fetchCount)

	var second []domain.TrendPoint
	require.NoError(t, cache.GetOrSet(ctx, "dash:trend", &second, fetch, time.Minute))
	assert.Equal(t, 1, fetchCount)
	assert.Equal(t, "2024-01-02", second[0].Date)
	assert.True(t, decimal.NewFromInt(42).Equal(second[0].Sales))
}

func TestCache_GetOrSet_FetchError(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	boom := errors.New("store unavailable")
	var dest []domain.TrendPoint
	err := cache.GetOrSet(ctx, "dash:trend", &dest, func() (interface{}, error) {
		return nil, boom
	}, time.Minute)

	assert.ErrorIs(t, err, boom)
	exists, err := cache.Exists(ctx, "dash:trend")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTokenBlacklist(t *testing.T) {
	ctx := context.Background()
	cache, r := newCache(t)
	blacklist := redis_a.NewTokenBlacklist(cache)

	revoked, err := blacklist.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, blacklist.Revoke(ctx, "jti-1", time.Hour))
	require.NoError(t, blacklist.Revoke(ctx, "jti-expired", 0))

	revoked, err = blacklist.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = blacklist.IsRevoked(ctx, "jti-expired")
	require.NoError(t, err)
	assert.False(t, revoked)

	r.Server.FastForward(2 * time.Hour)

	revoked, err = blacklist.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestExportJobStore(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)
	store := redis_a.NewExportJobStore(cache, 24*time.Hour)

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	job := &domain.ExportJob{
		ID:          "job-1",
		Status:      domain.ExportQueued,
		RequestedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, job))

	job.Status = domain.ExportCompleted
	job.Rows = 12
	require.NoError(t, store.Save(ctx, job))

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ExportCompleted, got.Status)
	assert.Equal(t, 12, got.Rows)
	assert.True(t, job.RequestedAt.Equal(got.RequestedAt))
}

func TestCache_BuildKey(t *testing.T) {
	tests := []struct {
		name     string
		prefix   redis_a.CacheKeyPrefix
		parts    []string
		expected string
	}{
		{
			name:     "dashboard_key",
			prefix:   redis_a.PrefixDashboard,
			parts:    []string{"kpi", "2024-01-01", "2024-01-31"},
			expected: "dash:kpi:2024-01-01:2024-01-31",
		},
		{
			name:     "blacklist_key",
			prefix:   redis_a.PrefixBlacklist,
			parts:    []string{"jti"},
			expected: "blacklist:jti",
		},
		{
			name:     "no_parts",
			prefix:   redis_a.PrefixExport,
			parts:    []string{},
			expected: "export",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, redis_a.BuildKey(tt.prefix, tt.parts...))
		})
	}
}
