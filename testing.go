package evtrack

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// TestTracker creates a tracker configured for testing.
// Metrics are disabled and log lines go to a RecordingHandler,
// which is returned for assertions.
//
// Example:
//
//	tracker, logs := evtrack.TestTracker()
//	tracker.Unregister(obj, "click", nil)
//	if logs.CountLevel(slog.LevelWarn) != 1 { ... }
func TestTracker(opts ...Option) (*Tracker, *RecordingHandler) {
	h := NewRecordingHandler()
	base := []Option{
		WithName("test-tracker"),
		WithLogger(slog.New(h)),
		WithMetrics(false),
		WithTracing(false),
	}
	return New(append(base, opts...)...), h
}

// RecordedLine is a log line captured by a RecordingHandler
type RecordedLine struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
	Time    time.Time
}

// RecordingHandler is a slog.Handler that keeps every record in memory.
// Useful for testing what a tracker reports.
type RecordingHandler struct {
	mu    *sync.Mutex
	lines *[]RecordedLine
	attrs []slog.Attr
	group string
}

// NewRecordingHandler creates an empty recording handler.
func NewRecordingHandler() *RecordingHandler {
	lines := make([]RecordedLine, 0)
	return &RecordingHandler{
		mu:    &sync.Mutex{},
		lines: &lines,
	}
}

// Enabled records every level
func (h *RecordingHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle records the line
func (h *RecordingHandler) Handle(_ context.Context, r slog.Record) error {
	line := RecordedLine{
		Level:   r.Level,
		Message: r.Message,
		Attrs:   make(map[string]any, r.NumAttrs()+len(h.attrs)),
		Time:    r.Time,
	}
	for _, a := range h.attrs {
		line.Attrs[h.key(a.Key)] = a.Value.Resolve().Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		line.Attrs[h.key(a.Key)] = a.Value.Resolve().Any()
		return true
	})

	h.mu.Lock()
	*h.lines = append(*h.lines, line)
	h.mu.Unlock()
	return nil
}

func (h *RecordingHandler) key(k string) string {
	if h.group == "" {
		return k
	}
	return h.group + "." + k
}

// WithAttrs returns a handler sharing the same records
func (h *RecordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

// WithGroup returns a handler sharing the same records
func (h *RecordingHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.group = h.key(name)
	return &next
}

// Lines returns a copy of all recorded lines
func (h *RecordingHandler) Lines() []RecordedLine {
	h.mu.Lock()
	defer h.mu.Unlock()

	result := make([]RecordedLine, len(*h.lines))
	copy(result, *h.lines)
	return result
}

// Messages returns the messages of all recorded lines
func (h *RecordingHandler) Messages() []string {
	lines := h.Lines()
	result := make([]string, len(lines))
	for i, l := range lines {
		result[i] = l.Message
	}
	return result
}

// CountLevel returns the number of lines recorded at level
func (h *RecordingHandler) CountLevel(level slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	count := 0
	for _, l := range *h.lines {
		if l.Level == level {
			count++
		}
	}
	return count
}

// Contains returns true if any recorded message contains substr
func (h *RecordingHandler) Contains(substr string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, l := range *h.lines {
		if strings.Contains(l.Message, substr) {
			return true
		}
	}
	return false
}

// Reset clears all recorded lines
func (h *RecordingHandler) Reset() {
	h.mu.Lock()
	*h.lines = make([]RecordedLine, 0)
	h.mu.Unlock()
}
