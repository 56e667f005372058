package fetch

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	apperrors "quantkit/internal/errors"
)

// Task is one fetch of a batch
type Task struct {
	Fetcher *Fetcher
	Method  string
}

// GetTask wraps f as a GET task
func GetTask(f *Fetcher) Task {
	return Task{Fetcher: f, Method: http.MethodGet}
}

// PostTask wraps f as a POST task
func PostTask(f *Fetcher) Task {
	return Task{Fetcher: f, Method: http.MethodPost}
}

type batchConfig struct {
	concurrency int
	limiter     *rate.Limiter
}

// BatchOption configures RunBatch
type BatchOption func(*batchConfig)

// WithConcurrency caps the number of fetches in flight; zero or less is unbounded
func WithConcurrency(n int) BatchOption {
	return func(c *batchConfig) { c.concurrency = n }
}

// WithRateLimit spaces fetch starts to rps per second with the given burst.
// A non-positive rps disables the limit.
func WithRateLimit(rps float64, burst int) BatchOption {
	return func(c *batchConfig) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// RunBatch runs every task concurrently and collects the payloads into store.
// An exhausted task records its failure in store and does not cancel the
// others. RunBatch returns once all started tasks have finished; the error is
// non-nil only for invalid input or when ctx ends before every task started.
// Tasks that never started are recorded as failures wrapping the ctx error.
func RunBatch(ctx context.Context, store *Store, tasks []Task, opts ...BatchOption) error {
	if store == nil {
		return apperrors.NewValidationError("batch requires a store", nil)
	}
	cfg := batchConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	seen := make(map[string]struct{}, len(tasks))
	for i, task := range tasks {
		if task.Fetcher == nil {
			return apperrors.NewValidationError(fmt.Sprintf("task %d has no fetcher", i), nil)
		}
		if task.Method != http.MethodGet && task.Method != http.MethodPost {
			return apperrors.NewValidationError(fmt.Sprintf("task %d: unsupported method %q", i, task.Method), nil)
		}
		if task.Fetcher.process == nil {
			return fmt.Errorf("task %d (%s): %w", i, task.Fetcher.URL(), ErrNoProcessor)
		}
		u := task.Fetcher.URL()
		if _, dup := seen[u]; dup {
			return apperrors.NewValidationError(u, ErrDuplicateURL)
		}
		seen[u] = struct{}{}
	}

	var g errgroup.Group
	if cfg.concurrency > 0 {
		g.SetLimit(cfg.concurrency)
	}

	var startErr error
	for i, task := range tasks {
		if cfg.limiter != nil {
			startErr = cfg.limiter.Wait(ctx)
		} else {
			startErr = ctx.Err()
		}
		if startErr != nil {
			for _, skipped := range tasks[i:] {
				store.Fail(skipped.Fetcher.URL(), fmt.Errorf("fetch not started: %w", startErr))
			}
			break
		}
		g.Go(func() error {
			// failures are recorded in store
			_ = task.Fetcher.runAsync(ctx, task.Method, store)
			return nil
		})
	}
	_ = g.Wait()
	return startErr
}
