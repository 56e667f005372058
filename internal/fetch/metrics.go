package fetch

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "quantkit/internal/fetch"

// Metrics holds the fetch instruments. A nil *Metrics records nothing.
type Metrics struct {
	attempts  metric.Int64Counter
	exhausted metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewMetrics registers the fetch instruments on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	attempts, err := meter.Int64Counter("fetch_attempts_total",
		metric.WithDescription("Fetch attempts by method and outcome"),
		metric.WithUnit("{attempt}"))
	if err != nil {
		return nil, err
	}
	exhausted, err := meter.Int64Counter("fetch_exhausted_total",
		metric.WithDescription("Fetches that failed on every attempt"),
		metric.WithUnit("{fetch}"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("fetch_attempt_duration_seconds",
		metric.WithDescription("Duration of single fetch attempts"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10))
	if err != nil {
		return nil, err
	}
	return &Metrics{attempts: attempts, exhausted: exhausted, duration: duration}, nil
}

var (
	defaultMetricsOnce sync.Once
	defaultMetrics     *Metrics
)

// globalMetrics registers the instruments on the global meter provider once.
// Instruments are bound to whatever provider is installed at first use.
func globalMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		m, err := NewMetrics(otel.Meter(instrumentationName))
		if err == nil {
			defaultMetrics = m
		}
	})
	return defaultMetrics
}

func (m *Metrics) recordAttempt(ctx context.Context, method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("outcome", outcome))
	m.attempts.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *Metrics) recordExhausted(ctx context.Context, method string) {
	if m == nil {
		return
	}
	m.exhausted.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
}
