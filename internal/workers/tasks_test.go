// internal/workers/tasks_test.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-" + task.Type(), Type: task.Type()}, nil
}

func TestNewETLTask(t *testing.T) {
	task := NewETLTask(0)
	assert.Equal(t, TypeETLRefresh, task.Type())
	assert.Empty(t, task.Payload())
}

func TestNewExportTask(t *testing.T) {
	req := domain.ExportRequest{
		ID:          "exp-1",
		DateLayout:  domain.ExportDateUS,
		RequestedBy: "admin@example.com",
		Filter:      domain.SalesFilter{Category: "Books"},
	}

	task, err := NewExportTask(req)
	require.NoError(t, err)
	assert.Equal(t, TypeReportExport, task.Type())

	var decoded domain.ExportRequest
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, req.ID, decoded.ID)
	assert.Equal(t, "Books", decoded.Filter.Category)
	assert.Equal(t, domain.ExportDateUS, decoded.DateLayout)
}

func TestClient_EnqueueETL(t *testing.T) {
	tests := []struct {
		name        string
		enqueueErr  error
		wantErr     error
		wantAnyErr  bool
		wantTaskLen int
	}{
		{name: "success", wantTaskLen: 1},
		{name: "duplicate_maps_to_domain_error", enqueueErr: asynq.ErrDuplicateTask, wantErr: domain.ErrDuplicate},
		{name: "redis_failure", enqueueErr: errors.New("connection refused"), wantAnyErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enq := &fakeEnqueuer{err: tt.enqueueErr}
			client := NewClient(enq, time.Minute)

			id, err := client.EnqueueETL(context.Background())

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantAnyErr:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, domain.ErrDuplicate)
			default:
				require.NoError(t, err)
				assert.Equal(t, "task-"+TypeETLRefresh, id)
			}
			assert.Len(t, enq.tasks, tt.wantTaskLen)
		})
	}
}

func TestClient_EnqueueExport(t *testing.T) {
	enq := &fakeEnqueuer{}
	client := NewClient(enq, 0)

	_, err := client.EnqueueExport(context.Background(), domain.ExportRequest{ID: "exp-9"})
	require.NoError(t, err)
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TypeReportExport, enq.tasks[0].Type())
}

func TestClient_EnqueueAnalytics(t *testing.T) {
	enq := &fakeEnqueuer{}
	client := NewClient(enq, 0)

	require.NoError(t, client.EnqueueAnalytics(context.Background()))
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TypeRefreshAnalytics, enq.tasks[0].Type())

	enq.err = errors.New("boom")
	assert.Error(t, client.EnqueueAnalytics(context.Background()))
}

func TestTaskOptions_NeverRetry(t *testing.T) {
	tests := []struct {
		name      string
		opts      []asynq.Option
		wantQueue string
	}{
		{name: "etl", opts: etlTaskOptions(0), wantQueue: QueueCritical},
		{name: "analytics", opts: analyticsTaskOptions(), wantQueue: QueueLow},
		{name: "export", opts: exportTaskOptions("exp-1"), wantQueue: QueueDefault},
		{name: "cleanup", opts: cleanupTaskOptions(), wantQueue: QueueLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := map[asynq.OptionType]interface{}{}
			for _, opt := range tt.opts {
				values[opt.Type()] = opt.Value()
			}

			require.Contains(t, values, asynq.MaxRetryOpt)
			assert.Equal(t, 0, values[asynq.MaxRetryOpt])
			assert.Equal(t, tt.wantQueue, values[asynq.QueueOpt])
		})
	}
}

func TestETLTaskOptions_DefaultTimeout(t *testing.T) {
	for _, opt := range etlTaskOptions(0) {
		if opt.Type() == asynq.TimeoutOpt {
			assert.Equal(t, DefaultETLTimeout, opt.Value())
			return
		}
	}
	t.Fatal("etl task has no timeout")
}
