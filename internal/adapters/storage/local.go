// internal/adapters/storage/local.go
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/ammerola/bi-dashboard/internal/core/ports"
)

// LocalStorage implements ports.ExportArchive on a filesystem. Used in
// development when no bucket is configured, and in tests with an in-memory fs.
type LocalStorage struct {
	fs      afero.Fs
	baseURL string
	logger  *slog.Logger
}

var _ ports.ExportArchive = (*LocalStorage)(nil)

// NewLocalStorage stores files under basePath on disk
func NewLocalStorage(basePath, baseURL string, logger *slog.Logger) *LocalStorage {
	return NewLocalStorageFs(afero.NewBasePathFs(afero.NewOsFs(), basePath), baseURL, logger)
}

// NewLocalStorageFs stores files on fs
func NewLocalStorageFs(fs afero.Fs, baseURL string, logger *slog.Logger) *LocalStorage {
	return &LocalStorage{
		fs:      fs,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With(slog.String("storage", "local")),
	}
}

// Upload writes data to key, creating parent directories
func (l *LocalStorage) Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	name := filepath.FromSlash(key)
	if err := l.fs.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := afero.WriteReader(l.fs, name, data); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	l.logger.InfoContext(ctx, "file uploaded",
		slog.String("key", key),
		slog.String("content_type", contentTypeFor(key, contentType)))

	return l.baseURL + "/" + key, nil
}

// PresignGet returns a download URL carrying its expiry time. The URL is
// not signed; local storage is for development only.
func (l *LocalStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if _, err := l.fs.Stat(filepath.FromSlash(key)); err != nil {
		return "", fmt.Errorf("failed to stat file: %w", err)
	}

	q := url.Values{}
	q.Set("expires", time.Now().Add(expiry).UTC().Format(time.RFC3339))
	return l.baseURL + "/" + key + "?" + q.Encode(), nil
}

// ListOlderThan walks prefix and keeps files modified before cutoff
func (l *LocalStorage) ListOlderThan(ctx context.Context, prefix string, cutoff time.Time) ([]string, error) {
	var keys []string

	root := filepath.FromSlash(strings.TrimSuffix(prefix, "/"))
	err := afero.Walk(l.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() && info.ModTime().Before(cutoff) {
			keys = append(keys, filepath.ToSlash(p))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return keys, nil
}

// DeleteMany removes keys, ignoring ones that are already gone
func (l *LocalStorage) DeleteMany(ctx context.Context, keys []string) error {
	for _, key := range keys {
		if err := l.fs.Remove(filepath.FromSlash(key)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	return nil
}

// FileServer serves stored files for the download URLs handed out by
// PresignGet
func (l *LocalStorage) FileServer() http.Handler {
	return http.FileServer(afero.NewHttpFs(l.fs).Dir("/"))
}

// Ping always succeeds
func (l *LocalStorage) Ping(ctx context.Context) error {
	return nil
}

func contentTypeFor(key, contentType string) string {
	if contentType != "" {
		return contentType
	}
	if t := mime.TypeByExtension(filepath.Ext(key)); t != "" {
		return t
	}
	return "application/octet-stream"
}
