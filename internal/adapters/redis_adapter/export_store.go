// internal/adapters/redis_adapter/export_store.go
package redis_a

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
)

// ExportJobStore keeps export job status records for as long as the
// archived file is retained
type ExportJobStore struct {
	cache *Cache
	ttl   time.Duration
}

var _ ports.ExportJobStore = (*ExportJobStore)(nil)

// NewExportJobStore creates an export job store
func NewExportJobStore(cache *Cache, ttl time.Duration) *ExportJobStore {
	return &ExportJobStore{cache: cache, ttl: ttl}
}

func (s *ExportJobStore) Save(ctx context.Context, job *domain.ExportJob) error {
	if err := s.cache.SetWithTTL(ctx, BuildKey(PrefixExport, job.ID), job, s.ttl); err != nil {
		return fmt.Errorf("failed to save export job %s: %w", job.ID, err)
	}
	return nil
}

// Get returns domain.ErrNotFound for unknown or expired jobs
func (s *ExportJobStore) Get(ctx context.Context, id string) (*domain.ExportJob, error) {
	job := &domain.ExportJob{}
	if err := s.cache.Get(ctx, BuildKey(PrefixExport, id), job); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, fmt.Errorf("export job %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return job, nil
}
