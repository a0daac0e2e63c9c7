// internal/handlers/health.go
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/hibiken/asynq"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// QueueInspector is the subset of *asynq.Inspector used for queue stats
type QueueInspector interface {
	Queues() ([]string, error)
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	version     string
	environment string
	checks      map[string]HealthCheck
	inspector   QueueInspector
	logger      *slog.Logger
	startTime   time.Time
}

// NewHealthHandler creates a new health handler. inspector may be nil.
func NewHealthHandler(version, environment string, checks map[string]HealthCheck, inspector QueueInspector, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		version:     version,
		environment: environment,
		checks:      checks,
		inspector:   inspector,
		logger:      logger.With(slog.String("handler", "health")),
		startTime:   time.Now(),
	}
}

// HealthStatus represents the health status of the application
type HealthStatus struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version"`
	Environment string                 `json:"environment"`
	Uptime      string                 `json:"uptime"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]ServiceInfo `json:"services"`
	System      SystemInfo             `json:"system"`
}

// ServiceInfo represents the status of a service dependency
type ServiceInfo struct {
	Status       string                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	ResponseTime string                 `json:"response_time,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// SystemInfo represents system-level information
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	NumCPU        int    `json:"num_cpu"`
	MemoryAllocMB uint64 `json:"memory_alloc_mb"`
	NumGC         uint32 `json:"num_gc"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := HealthStatus{
		Status:      "healthy",
		Version:     h.version,
		Environment: h.environment,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:   time.Now().UTC(),
		Services:    make(map[string]ServiceInfo),
		System:      systemInfo(),
	}

	for _, name := range h.checkNames() {
		info := h.runCheck(ctx, name)
		health.Services[name] = info
		if info.Status != "healthy" {
			health.Status = "degraded"
		}
	}

	if h.inspector != nil {
		info := h.checkQueues(ctx)
		health.Services["queue"] = info
		if info.Status != "healthy" {
			health.Status = "degraded"
		}
	}

	statusCode := http.StatusOK
	if health.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respondJSON(w, statusCode, health)
}

// Readiness handles GET /ready
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ready := true
	details := make(map[string]string, len(h.checks))
	for _, name := range h.checkNames() {
		if err := h.checks[name](ctx); err != nil {
			ready = false
			details[name] = "not ready"
		} else {
			details[name] = "ready"
		}
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"ready":   ready,
		"details": details,
	}); err != nil {
		h.logger.ErrorContext(ctx, "failed to encode readiness response",
			slog.String("error", err.Error()))
	}
}

func (h *HealthHandler) checkNames() []string {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *HealthHandler) runCheck(ctx context.Context, name string) ServiceInfo {
	start := time.Now()
	if err := h.checks[name](ctx); err != nil {
		h.logger.ErrorContext(ctx, "health check failed",
			slog.String("service", name),
			slog.String("error", err.Error()))
		return ServiceInfo{Status: "unhealthy", Message: err.Error()}
	}
	return ServiceInfo{Status: "healthy", ResponseTime: time.Since(start).String()}
}

func (h *HealthHandler) checkQueues(ctx context.Context) ServiceInfo {
	start := time.Now()
	queues, err := h.inspector.Queues()
	if err != nil {
		h.logger.ErrorContext(ctx, "queue health check failed", slog.String("error", err.Error()))
		return ServiceInfo{Status: "unhealthy", Message: err.Error()}
	}

	stats := make(map[string]interface{}, len(queues))
	for _, queue := range queues {
		qInfo, err := h.inspector.GetQueueInfo(queue)
		if err != nil {
			continue
		}
		stats[queue] = map[string]interface{}{
			"size":     qInfo.Size,
			"active":   qInfo.Active,
			"pending":  qInfo.Pending,
			"retry":    qInfo.Retry,
			"archived": qInfo.Archived,
			"failed":   qInfo.Failed,
		}
	}

	return ServiceInfo{
		Status:       "healthy",
		ResponseTime: time.Since(start).String(),
		Details:      map[string]interface{}{"queues": stats},
	}
}

func systemInfo() SystemInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		MemoryAllocMB: memStats.Alloc / 1024 / 1024,
		NumGC:         memStats.NumGC,
	}
}
