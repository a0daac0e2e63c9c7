// internal/core/ports/storage.go
package ports

import (
	"context"
	"io"
	"time"
)

// ExportArchive stores generated export files
type ExportArchive interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	// ListOlderThan returns keys under prefix last modified before cutoff
	ListOlderThan(ctx context.Context, prefix string, cutoff time.Time) ([]string, error)
	DeleteMany(ctx context.Context, keys []string) error
	Ping(ctx context.Context) error
}
