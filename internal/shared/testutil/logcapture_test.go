package testutil

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogCapture(t *testing.T) {
	logger, logs := NewTestLogger(t)
	child := logger.With(slog.String("component", "fetch"))

	logger.Info("started")
	child.Warn("fetch_attempt_failed", slog.Int("attempt", 2))

	records := logs.Records()
	require.Len(t, records, 2)
	assert.Empty(t, records[0].Attrs)
	assert.Equal(t, map[string]any{"component": "fetch", "attempt": int64(2)}, records[1].Attrs)

	assert.Len(t, logs.Find(slog.LevelWarn, "fetch_attempt_failed"), 1)
	assert.Empty(t, logs.Find(slog.LevelError, "fetch_attempt_failed"))
	AssertLogged(t, logs, slog.LevelInfo, "started")
}

func TestLogCapture_Concurrent(t *testing.T) {
	logger, logs := NewTestLogger(nil)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("tick", slog.Int("i", i))
		}()
	}
	wg.Wait()
	assert.Equal(t, 32, logs.Count("tick"))
}
