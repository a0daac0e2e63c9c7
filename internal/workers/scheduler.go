// internal/workers/scheduler.go
package workers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Default cron specs, evaluated in UTC
const (
	DefaultETLSchedule     = "0 * * * *"
	DefaultCleanupSchedule = "30 3 * * *"
)

// Registrar is the subset of *asynq.Scheduler used to register periodic tasks
type Registrar interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error)
}

// ScheduleConfig holds the periodic task cron specs. An empty spec falls back
// to the default; "-" disables the entry.
type ScheduleConfig struct {
	ETL        string
	Cleanup    string
	ETLTimeout time.Duration
}

// RegisterSchedules registers the periodic refresh and the export retention sweep
func RegisterSchedules(r Registrar, cfg ScheduleConfig, logger *slog.Logger) error {
	entries := []struct {
		name string
		spec string
		def  string
		task *asynq.Task
	}{
		{"etl_refresh", cfg.ETL, DefaultETLSchedule, NewETLTask(cfg.ETLTimeout)},
		{"export_cleanup", cfg.Cleanup, DefaultCleanupSchedule, NewCleanupTask()},
	}

	for _, e := range entries {
		spec := e.spec
		if spec == "" {
			spec = e.def
		}
		if spec == "-" {
			logger.Info("periodic task disabled", slog.String("task", e.name))
			continue
		}
		id, err := r.Register(spec, e.task)
		if err != nil {
			return fmt.Errorf("failed to register %s schedule %q: %w", e.name, spec, err)
		}
		logger.Info("periodic task registered",
			slog.String("task", e.name),
			slog.String("cron", spec),
			slog.String("entry_id", id))
	}
	return nil
}
