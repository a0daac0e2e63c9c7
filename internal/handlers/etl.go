// internal/handlers/etl.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
)

// ETLHandler triggers on-demand dataset refreshes
type ETLHandler struct {
	queue  ports.TaskQueue
	logger *slog.Logger
}

// NewETLHandler creates a new ETL handler
func NewETLHandler(queue ports.TaskQueue, logger *slog.Logger) *ETLHandler {
	return &ETLHandler{
		queue:  queue,
		logger: logger.With(slog.String("handler", "etl")),
	}
}

// Run handles POST /api/etl/run
func (h *ETLHandler) Run(w http.ResponseWriter, r *http.Request) {
	taskID, err := h.queue.EnqueueETL(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			respondError(w, http.StatusConflict, "A data refresh is already queued")
			return
		}
		respondServiceError(r.Context(), h.logger, w, err, "Error scheduling data refresh")
		return
	}

	h.logger.InfoContext(r.Context(), "data refresh queued", slog.String("task_id", taskID))
	respondData(w, http.StatusAccepted, map[string]string{"taskId": taskID})
}
