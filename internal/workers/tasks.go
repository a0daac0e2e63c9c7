// internal/workers/tasks.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
)

const (
	TypeETLRefresh       = "etl:refresh"
	TypeRefreshAnalytics = "analytics:refresh"
	TypeReportExport     = "report:export"
	TypeCleanupExports   = "cleanup:exports"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// DefaultETLTimeout caps one refresh run
const DefaultETLTimeout = 5 * time.Minute

// etlUniqueWindow stops a manual and a scheduled refresh from piling up
const etlUniqueWindow = time.Minute

// Failed tasks are never retried. Errors are logged by the server and a
// failed export is reported through its job record.

// NewETLTask builds a dataset refresh task. The next scheduled run replaces
// the data anyway.
func NewETLTask(timeout time.Duration) *asynq.Task {
	return asynq.NewTask(TypeETLRefresh, nil, etlTaskOptions(timeout)...)
}

func etlTaskOptions(timeout time.Duration) []asynq.Option {
	if timeout <= 0 {
		timeout = DefaultETLTimeout
	}
	return []asynq.Option{
		asynq.MaxRetry(0),
		asynq.Queue(QueueCritical),
		asynq.Timeout(timeout),
		asynq.Unique(etlUniqueWindow),
	}
}

// NewAnalyticsTask builds a cache warm-up task
func NewAnalyticsTask() *asynq.Task {
	return asynq.NewTask(TypeRefreshAnalytics, nil, analyticsTaskOptions()...)
}

func analyticsTaskOptions() []asynq.Option {
	return []asynq.Option{
		asynq.MaxRetry(0),
		asynq.Queue(QueueLow),
		asynq.Timeout(time.Minute),
	}
}

// NewExportTask builds an archived export task. The task id is the export id.
func NewExportTask(req domain.ExportRequest) (*asynq.Task, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export request: %w", err)
	}
	return asynq.NewTask(TypeReportExport, payload, exportTaskOptions(req.ID)...), nil
}

func exportTaskOptions(id string) []asynq.Option {
	return []asynq.Option{
		asynq.TaskID(id),
		asynq.MaxRetry(0),
		asynq.Queue(QueueDefault),
		asynq.Timeout(5 * time.Minute),
	}
}

// NewCleanupTask builds an export retention sweep
func NewCleanupTask() *asynq.Task {
	return asynq.NewTask(TypeCleanupExports, nil, cleanupTaskOptions()...)
}

func cleanupTaskOptions() []asynq.Option {
	return []asynq.Option{
		asynq.MaxRetry(0),
		asynq.Queue(QueueLow),
	}
}

// Enqueuer is the subset of *asynq.Client used to submit tasks
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Client submits background work
type Client struct {
	enqueuer   Enqueuer
	etlTimeout time.Duration
}

var _ ports.TaskQueue = (*Client)(nil)

// NewClient wraps an asynq client
func NewClient(enqueuer Enqueuer, etlTimeout time.Duration) *Client {
	return &Client{enqueuer: enqueuer, etlTimeout: etlTimeout}
}

// EnqueueETL schedules an immediate dataset refresh
func (c *Client) EnqueueETL(ctx context.Context) (string, error) {
	info, err := c.enqueuer.EnqueueContext(ctx, NewETLTask(c.etlTimeout))
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			return "", fmt.Errorf("etl refresh already queued: %w", domain.ErrDuplicate)
		}
		return "", fmt.Errorf("failed to enqueue etl task: %w", err)
	}
	return info.ID, nil
}

// EnqueueExport schedules an archived export
func (c *Client) EnqueueExport(ctx context.Context, req domain.ExportRequest) (string, error) {
	task, err := NewExportTask(req)
	if err != nil {
		return "", err
	}
	info, err := c.enqueuer.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue export task: %w", err)
	}
	return info.ID, nil
}

// EnqueueAnalytics schedules a cache warm-up
func (c *Client) EnqueueAnalytics(ctx context.Context) error {
	if _, err := c.enqueuer.EnqueueContext(ctx, NewAnalyticsTask()); err != nil {
		return fmt.Errorf("failed to enqueue analytics task: %w", err)
	}
	return nil
}
