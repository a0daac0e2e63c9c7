// internal/workers/processors_test.go
package workers

import (
	"context"
	"errors"
	"path"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	redis_a "github.com/ammerola/bi-dashboard/internal/adapters/redis_adapter"
	"github.com/ammerola/bi-dashboard/internal/adapters/storage"
	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/test/helpers"
	"github.com/ammerola/bi-dashboard/test/mocks"
)

type stubAnalytics struct {
	calls int
	err   error
}

func (s *stubAnalytics) EnqueueAnalytics(ctx context.Context) error {
	s.calls++
	return s.err
}

func TestETLProcessor_ProcessRefresh(t *testing.T) {
	tests := []struct {
		name          string
		runErr        error
		analyticsErr  error
		wantErr       bool
		wantAnalytics int
	}{
		{name: "success_queues_analytics", wantAnalytics: 1},
		{name: "analytics_failure_is_not_fatal", analyticsErr: errors.New("redis down"), wantAnalytics: 1},
		{name: "refresh_failure", runErr: errors.New("sales phase: boom"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			etl := mocks.NewMockETLService(ctrl)
			analytics := &stubAnalytics{err: tt.analyticsErr}

			if tt.runErr != nil {
				etl.EXPECT().Run(gomock.Any()).Return(nil, tt.runErr)
			} else {
				etl.EXPECT().Run(gomock.Any()).Return(&domain.DatasetCounts{Products: 25, Customers: 50, Sales: 500}, nil)
			}

			p := NewETLProcessor(etl, analytics, helpers.TestLogger())
			err := p.ProcessRefresh(context.Background(), NewETLTask(0))

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantAnalytics, analytics.calls)
		})
	}
}

func TestAnalyticsProcessor_RefreshAnalytics(t *testing.T) {
	ctrl := gomock.NewController(t)
	reports := mocks.NewMockReportService(ctrl)
	p := NewAnalyticsProcessor(reports, helpers.TestLogger())

	reports.EXPECT().WarmCache(gomock.Any()).Return(nil)
	assert.NoError(t, p.RefreshAnalytics(context.Background(), NewAnalyticsTask()))

	reports.EXPECT().WarmCache(gomock.Any()).Return(errors.New("db down"))
	assert.Error(t, p.RefreshAnalytics(context.Background(), NewAnalyticsTask()))
}

type exportFixture struct {
	reports *mocks.MockReportService
	fs      afero.Fs
	jobs    *redis_a.ExportJobStore
	proc    *ExportProcessor
	now     time.Time
}

func newExportFixture(t *testing.T) *exportFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := helpers.TestLogger()
	r := helpers.SetupTestRedis(t)

	f := &exportFixture{
		reports: mocks.NewMockReportService(ctrl),
		fs:      afero.NewMemMapFs(),
		jobs:    redis_a.NewExportJobStore(redis_a.NewCache(r.Client, time.Hour, logger), time.Hour),
		now:     time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	archive := storage.NewLocalStorageFs(f.fs, "http://localhost:8080/files", logger)
	f.proc = NewExportProcessor(f.reports, archive, f.jobs, time.Hour, logger)
	f.proc.now = func() time.Time { return f.now }
	return f
}

func TestExportProcessor_ProcessExport(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	req := domain.ExportRequest{ID: "exp-1", Sort: domain.DefaultSort, RequestedBy: "admin@example.com"}
	require.NoError(t, f.jobs.Save(ctx, &domain.ExportJob{ID: req.ID, Status: domain.ExportQueued, RequestedAt: f.now}))

	rows := []domain.ExportRow{
		{Date: "2024-03-01", Amount: 100, Region: "North", Category: "Books", Product: "Novel", Status: "completed"},
		{Date: "2024-03-02", Amount: 50, Region: "South", Category: "Food", Product: "Tea", Status: "pending"},
	}
	f.reports.EXPECT().ExportSales(gomock.Any(), req.Filter, req.Sort, domain.ExportDateISO).Return(rows, nil)

	task, err := NewExportTask(req)
	require.NoError(t, err)
	require.NoError(t, f.proc.ProcessExport(ctx, task))

	job, err := f.jobs.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExportCompleted, job.Status)
	assert.Equal(t, 2, job.Rows)
	assert.Equal(t, "exports/2024/03/10/exp-1.xlsx", job.Key)
	assert.Contains(t, job.URL, job.Key)
	require.NotNil(t, job.CompletedAt)

	exists, err := afero.Exists(f.fs, job.Key)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestExportProcessor_RecordsFailure(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	req := domain.ExportRequest{ID: "exp-2", DateLayout: domain.ExportDateUS}
	f.reports.EXPECT().ExportSales(gomock.Any(), gomock.Any(), gomock.Any(), domain.ExportDateUS).
		Return(nil, errors.New("connection reset"))

	task, err := NewExportTask(req)
	require.NoError(t, err)
	assert.Error(t, f.proc.ProcessExport(ctx, task))

	job, err := f.jobs.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExportFailed, job.Status)
	assert.Contains(t, job.Error, "connection reset")
	assert.Empty(t, job.URL)
}

func TestExportProcessor_MalformedPayloadSkipsRetry(t *testing.T) {
	f := newExportFixture(t)

	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "invalid_json", payload: []byte("{not json")},
		{name: "missing_id", payload: []byte(`{"dateLayout":"2006-01-02"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.proc.ProcessExport(context.Background(), asynq.NewTask(TypeReportExport, tt.payload))
			assert.ErrorIs(t, err, asynq.SkipRetry)
		})
	}
}

func TestCleanupProcessor_CleanupExports(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	fs := afero.NewMemMapFs()
	archive := storage.NewLocalStorageFs(fs, "", helpers.TestLogger())

	oldKey := storage.ExportKey("old", now.AddDate(0, 0, -10))
	newKey := storage.ExportKey("new", now.AddDate(0, 0, -1))
	for _, key := range []string{oldKey, newKey} {
		require.NoError(t, fs.MkdirAll(path.Dir(key), 0o755))
		require.NoError(t, afero.WriteFile(fs, key, []byte("xlsx"), 0o644))
	}
	require.NoError(t, fs.Chtimes(oldKey, now.AddDate(0, 0, -10), now.AddDate(0, 0, -10)))
	require.NoError(t, fs.Chtimes(newKey, now.AddDate(0, 0, -1), now.AddDate(0, 0, -1)))

	p := NewCleanupProcessor(archive, 7*24*time.Hour, helpers.TestLogger())
	p.now = func() time.Time { return now }

	require.NoError(t, p.CleanupExports(ctx, NewCleanupTask()))

	oldExists, _ := afero.Exists(fs, oldKey)
	newExists, _ := afero.Exists(fs, newKey)
	assert.False(t, oldExists)
	assert.True(t, newExists)
}

func TestCleanupProcessor_ListFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	archive := mocks.NewMockExportArchive(ctrl)
	archive.EXPECT().ListOlderThan(gomock.Any(), storage.ExportPrefix, gomock.Any()).
		Return(nil, errors.New("access denied"))

	p := NewCleanupProcessor(archive, 0, helpers.TestLogger())
	assert.Error(t, p.CleanupExports(context.Background(), NewCleanupTask()))
}

type recordingRegistrar struct {
	specs []string
	types []string
	err   error
}

func (r *recordingRegistrar) Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.specs = append(r.specs, cronspec)
	r.types = append(r.types, task.Type())
	return "entry-" + task.Type(), nil
}

func TestRegisterSchedules(t *testing.T) {
	tests := []struct {
		name      string
		cfg       ScheduleConfig
		wantSpecs []string
		wantTypes []string
	}{
		{
			name:      "defaults",
			wantSpecs: []string{DefaultETLSchedule, DefaultCleanupSchedule},
			wantTypes: []string{TypeETLRefresh, TypeCleanupExports},
		},
		{
			name:      "custom_etl",
			cfg:       ScheduleConfig{ETL: "*/15 * * * *"},
			wantSpecs: []string{"*/15 * * * *", DefaultCleanupSchedule},
			wantTypes: []string{TypeETLRefresh, TypeCleanupExports},
		},
		{
			name:      "cleanup_disabled",
			cfg:       ScheduleConfig{Cleanup: "-"},
			wantSpecs: []string{DefaultETLSchedule},
			wantTypes: []string{TypeETLRefresh},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recordingRegistrar{}
			require.NoError(t, RegisterSchedules(r, tt.cfg, helpers.TestLogger()))
			assert.Equal(t, tt.wantSpecs, r.specs)
			assert.Equal(t, tt.wantTypes, r.types)
		})
	}

	t.Run("register_error", func(t *testing.T) {
		r := &recordingRegistrar{err: errors.New("bad cron")}
		assert.Error(t, RegisterSchedules(r, ScheduleConfig{}, helpers.TestLogger()))
	})
}

func TestNewServeMux(t *testing.T) {
	ctrl := gomock.NewController(t)
	reports := mocks.NewMockReportService(ctrl)
	reports.EXPECT().WarmCache(gomock.Any()).Return(nil)

	mux := NewServeMux(Processors{Analytics: NewAnalyticsProcessor(reports, helpers.TestLogger())})

	assert.NoError(t, mux.ProcessTask(context.Background(), NewAnalyticsTask()))
	assert.Error(t, mux.ProcessTask(context.Background(), NewCleanupTask()))
}
