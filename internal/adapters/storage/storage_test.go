package storage

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) (*LocalStorage, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLocalStorageFs(fs, "http://localhost:5000/files/", logger), fs
}

func TestExportKey(t *testing.T) {
	at := time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	assert.Equal(t, "exports/2024/03/10/abc.xlsx", ExportKey("abc", at))
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		name        string
		key         string
		contentType string
		want        string
	}{
		{name: "explicit_wins", key: "a.xlsx", contentType: ContentTypeXLSX, want: ContentTypeXLSX},
		{name: "from_extension", key: "a.json", want: "application/json"},
		{name: "unknown_extension", key: "a.unknownext", want: "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contentTypeFor(tt.key, tt.contentType))
		})
	}
}

func TestLocalStorage_UploadAndPresign(t *testing.T) {
	s, fs := newTestStorage(t)
	ctx := context.Background()
	key := ExportKey("job-1", time.Now())

	location, err := s.Upload(ctx, key, strings.NewReader("sheet"), ContentTypeXLSX)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/files/"+key, location)

	data, err := afero.ReadFile(fs, key)
	require.NoError(t, err)
	assert.Equal(t, "sheet", string(data))

	url, err := s.PresignGet(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, location+"?expires="))

	_, err = s.PresignGet(ctx, "exports/missing.xlsx", time.Hour)
	assert.Error(t, err)
}

func TestLocalStorage_RetentionSweep(t *testing.T) {
	s, fs := newTestStorage(t)
	ctx := context.Background()
	now := time.Now()

	oldKey := ExportKey("old", now.AddDate(0, 0, -10))
	newKey := ExportKey("new", now)
	for _, key := range []string{oldKey, newKey} {
		_, err := s.Upload(ctx, key, strings.NewReader("x"), "")
		require.NoError(t, err)
	}
	require.NoError(t, fs.Chtimes(oldKey, now.AddDate(0, 0, -10), now.AddDate(0, 0, -10)))

	keys, err := s.ListOlderThan(ctx, ExportPrefix, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, []string{oldKey}, keys)

	require.NoError(t, s.DeleteMany(ctx, append(keys, "exports/already-gone.xlsx")))

	exists, err := afero.Exists(fs, oldKey)
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = afero.Exists(fs, newKey)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalStorage_ListMissingPrefix(t *testing.T) {
	s, _ := newTestStorage(t)

	keys, err := s.ListOlderThan(context.Background(), "nothing/", time.Now())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestLocalStorage_FileServer(t *testing.T) {
	fs := afero.NewBasePathFs(afero.NewMemMapFs(), "/")
	store := NewLocalStorageFs(fs, "http://localhost:5000/files", slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	key := ExportKey("served", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	_, err := store.Upload(ctx, key, strings.NewReader("xlsx-bytes"), ContentTypeXLSX)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	store.FileServer().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/"+key, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "xlsx-bytes", w.Body.String())
}
