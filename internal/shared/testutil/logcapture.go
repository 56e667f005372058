// Package testutil holds test helpers shared across packages.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
)

// LogRecord is one captured log record
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogCapture records everything logged through the loggers it backs. It is
// safe for concurrent use.
type LogCapture struct {
	mu      sync.Mutex
	records []LogRecord
}

// captureHandler is the slog.Handler side of a LogCapture. Handlers derived
// through WithAttrs share the capture.
type captureHandler struct {
	capture *LogCapture
	attrs   []slog.Attr
	t       testing.TB
}

// NewTestLogger returns a logger that captures records and mirrors them to
// the test log
func NewTestLogger(t testing.TB) (*slog.Logger, *LogCapture) {
	c := &LogCapture{}
	return slog.New(&captureHandler{capture: c, t: t}), c
}

// QuietLogger discards everything
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.capture.mu.Lock()
	h.capture.records = append(h.capture.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	h.capture.mu.Unlock()

	if h.t != nil {
		h.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(slices.Clip(h.attrs), attrs...)
	return &clone
}

// WithGroup is flattened; captured keys are never qualified
func (h *captureHandler) WithGroup(string) slog.Handler { return h }

// Records returns a copy of the captured records
func (c *LogCapture) Records() []LogRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.records)
}

// Find returns the records with the given level and message
func (c *LogCapture) Find(level slog.Level, message string) []LogRecord {
	var out []LogRecord
	for _, r := range c.Records() {
		if r.Level == level && r.Message == message {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the number of records with the given message at any level
func (c *LogCapture) Count(message string) int {
	n := 0
	for _, r := range c.Records() {
		if r.Message == message {
			n++
		}
	}
	return n
}

// AssertLogged fails the test unless a record with level and message exists
func AssertLogged(t testing.TB, c *LogCapture, level slog.Level, message string) {
	t.Helper()
	if len(c.Find(level, message)) > 0 {
		return
	}
	t.Errorf("expected %s log %q, got:", level, message)
	for _, r := range c.Records() {
		t.Logf("  - [%s] %s", r.Level, r.Message)
	}
}
