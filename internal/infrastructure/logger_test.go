package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"quantkit/internal/config"
)

func decodeLine(t *testing.T, line []byte) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("Log output is not valid JSON: %v (%s)", err, line)
	}
	return entry
}

func TestInitializeLogger(t *testing.T) {
	defer CloseLogFile()

	logFile := filepath.Join(t.TempDir(), "nested", "test.log")
	cfg := config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	}

	logger, err := InitializeLogger(cfg)
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	if logger != GetLogger() {
		t.Error("GetLogger does not return the initialized logger")
	}

	logger.Info("test message", "key", "value")
	if err := CloseLogFile(); err != nil {
		t.Fatalf("CloseLogFile: %v", err)
	}

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	entry := decodeLine(t, bytes.TrimSpace(content))
	if entry["msg"] != "test message" {
		t.Errorf("Expected msg='test message', got %v", entry["msg"])
	}
	if entry["key"] != "value" {
		t.Errorf("Expected key='value', got %v", entry["key"])
	}
	if entry["level"] != "INFO" {
		t.Errorf("Expected level='INFO', got %v", entry["level"])
	}
}

func TestTraceIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer closer.Close()

	ctx := WithTraceID(context.Background(), "trace-123")
	logger.InfoContext(ctx, "with trace")
	logger.InfoContext(context.Background(), "without trace")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log lines, got %d", len(lines))
	}
	if got := decodeLine(t, lines[0])["trace_id"]; got != "trace-123" {
		t.Errorf("Expected trace_id='trace-123', got %v", got)
	}
	if _, ok := decodeLine(t, lines[1])["trace_id"]; ok {
		t.Error("Unexpected trace_id without a trace in context")
	}
}

func TestSpanTraceIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := NewLogger(config.LoggingConfig{Level: "info"}, &buf)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer closer.Close()

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	logger.InfoContext(ctx, "inside span")
	span.End()

	entry := decodeLine(t, bytes.TrimSpace(buf.Bytes()))
	if entry["trace_id"] != span.SpanContext().TraceID().String() {
		t.Errorf("Expected span trace id, got %v", entry["trace_id"])
	}
	if entry["span_id"] != span.SpanContext().SpanID().String() {
		t.Errorf("Expected span id, got %v", entry["span_id"])
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := parseLogLevel(tt.level); got != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.level, got, tt.expected)
			}
		})
	}

	var buf bytes.Buffer
	logger, _, err := NewLogger(config.LoggingConfig{Level: "warn"}, &buf)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Errorf("Level filtering failed: %s", buf.String())
	}
}

func TestTextFormatAndBothOutput(t *testing.T) {
	var buf bytes.Buffer
	logFile := filepath.Join(t.TempDir(), "both.log")
	logger, closer, err := NewLogger(config.LoggingConfig{Level: "info", Format: "text", Output: "both", FilePath: logFile}, &buf)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("fetch_exhausted", "attempts", 3)
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if !strings.Contains(buf.String(), "msg=fetch_exhausted") {
		t.Errorf("Expected text output on console, got %q", buf.String())
	}
	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "attempts=3") {
		t.Errorf("Expected text output in file, got %q", content)
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := EnsureTraceID(context.Background())
	id := GetTraceID(ctx)
	if len(id) != 36 {
		t.Errorf("Expected UUID trace id, got %q", id)
	}
	if GetTraceID(EnsureTraceID(ctx)) != id {
		t.Error("EnsureTraceID replaced an existing trace id")
	}
	if GetTraceID(context.Background()) != "" {
		t.Error("Expected empty trace id")
	}
	if GenerateTraceID() == GenerateTraceID() {
		t.Error("Trace ids are not unique")
	}
}

func TestLoggerHelpers(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	WithError(WithComponent(base, "fetch"), errors.New("boom")).Info("x")
	entry := decodeLine(t, bytes.TrimSpace(buf.Bytes()))
	if entry["component"] != "fetch" || entry["error"] != "boom" {
		t.Errorf("Unexpected fields: %v", entry)
	}
	if WithError(base, nil) != base {
		t.Error("WithError(nil) should return the same logger")
	}
}
