// internal/pkg/logger/elk.go
package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"
)

// ELKConfig holds configuration for shipping logs to Elasticsearch
type ELKConfig struct {
	ElasticsearchURL string        `json:"elasticsearch_url"`
	IndexPattern     string        `json:"index_pattern"`
	BatchSize        int           `json:"batch_size"`
	FlushInterval    time.Duration `json:"flush_interval"`
	Username         string        `json:"username"`
	Password         string        `json:"password"`
	EnableBatching   bool          `json:"enable_batching"`
}

// LogEntry represents a log entry for Elasticsearch
type LogEntry struct {
	Timestamp time.Time      `json:"@timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	TaskType  string         `json:"task_type,omitempty"`
	Method    string         `json:"method,omitempty"`
	Path      string         `json:"path,omitempty"`
	Error     string         `json:"error,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// elkShipper is shared by every handler derived through WithAttrs
type elkShipper struct {
	client *http.Client
	config ELKConfig
	mu     sync.Mutex
	buffer []LogEntry
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// ELKHandler buffers records and bulk-indexes them into Elasticsearch
type ELKHandler struct {
	shipper *elkShipper
	level   slog.Leveler
	attrs   []slog.Attr
	group   string
}

// NewELKHandler creates a new ELK handler
func NewELKHandler(cfg ELKConfig, level slog.Leveler) *ELKHandler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.IndexPattern == "" {
		cfg.IndexPattern = "bi-dashboard"
	}

	s := &elkShipper{
		client: &http.Client{Timeout: 10 * time.Second},
		config: cfg,
		buffer: make([]LogEntry, 0, cfg.BatchSize),
		done:   make(chan struct{}),
	}

	if cfg.EnableBatching {
		s.wg.Add(1)
		go s.run()
	}

	return &ELKHandler{shipper: s, level: level}
}

func (h *ELKHandler) Enabled(_ context.Context, level slog.Level) bool {
	if h.level == nil {
		return level >= slog.LevelInfo
	}
	return level >= h.level.Level()
}

func (h *ELKHandler) Handle(_ context.Context, record slog.Record) error {
	entry := LogEntry{
		Timestamp: record.Time.UTC(),
		Level:     record.Level.String(),
		Message:   record.Message,
		Fields:    make(map[string]any),
	}

	collect := func(a slog.Attr) bool {
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		switch ContextKey(a.Key) {
		case ContextKeyRequestID:
			entry.RequestID = a.Value.String()
		case ContextKeyUserID:
			entry.UserID = a.Value.String()
		case ContextKeyTaskType:
			entry.TaskType = a.Value.String()
		case ContextKeyMethod:
			entry.Method = a.Value.String()
		case ContextKeyPath:
			entry.Path = a.Value.String()
		default:
			if a.Key == "error" {
				entry.Error = a.Value.String()
			} else {
				entry.Fields[key] = a.Value.Any()
			}
		}
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	record.Attrs(collect)

	if !h.shipper.config.EnableBatching {
		go h.shipper.send([]LogEntry{entry})
		return nil
	}

	h.shipper.mu.Lock()
	h.shipper.buffer = append(h.shipper.buffer, entry)
	full := len(h.shipper.buffer) >= h.shipper.config.BatchSize
	h.shipper.mu.Unlock()

	if full {
		go h.shipper.flush()
	}
	return nil
}

func (h *ELKHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *ELKHandler) WithGroup(name string) slog.Handler {
	next := *h
	if next.group != "" {
		name = next.group + "." + name
	}
	next.group = name
	return &next
}

// Close stops the flusher and ships whatever is buffered
func (h *ELKHandler) Close() {
	h.shipper.once.Do(func() {
		close(h.shipper.done)
		h.shipper.wg.Wait()
		h.shipper.flush()
	})
}

func (s *elkShipper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.flush()
		case <-s.done:
			return
		}
	}
}

func (s *elkShipper) flush() {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return
	}
	entries := make([]LogEntry, len(s.buffer))
	copy(entries, s.buffer)
	s.buffer = s.buffer[:0]
	s.mu.Unlock()

	s.send(entries)
}

func (s *elkShipper) send(entries []LogEntry) {
	if len(entries) == 0 {
		return
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, entry := range entries {
		index := fmt.Sprintf("%s-%s", s.config.IndexPattern, entry.Timestamp.Format("2006.01.02"))
		_ = enc.Encode(map[string]any{"index": map[string]string{"_index": index}})
		_ = enc.Encode(entry)
	}

	req, err := http.NewRequest(http.MethodPost, s.config.ElasticsearchURL+"/_bulk", &buf)
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	if s.config.Username != "" && s.config.Password != "" {
		req.SetBasicAuth(s.config.Username, s.config.Password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		// the logger cannot log its own transport failures
		fmt.Fprintf(os.Stderr, "failed to ship logs to elasticsearch: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		fmt.Fprintf(os.Stderr, "elasticsearch bulk request returned %d\n", resp.StatusCode)
	}
}
