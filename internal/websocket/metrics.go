package websocket

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the hub instruments. A nil *Metrics records nothing.
type Metrics struct {
	clients  metric.Int64UpDownCounter
	messages metric.Int64Counter
}

// NewMetrics registers the hub instruments on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	clients, err := meter.Int64UpDownCounter("websocket_clients_active",
		metric.WithDescription("Connected websocket clients"),
		metric.WithUnit("{client}"))
	if err != nil {
		return nil, err
	}
	messages, err := meter.Int64Counter("websocket_messages_total",
		metric.WithDescription("Websocket messages by outcome"),
		metric.WithUnit("{message}"))
	if err != nil {
		return nil, err
	}
	return &Metrics{clients: clients, messages: messages}, nil
}

func (m *Metrics) clientDelta(ctx context.Context, n int64) {
	if m == nil {
		return
	}
	m.clients.Add(ctx, n)
}

func (m *Metrics) message(ctx context.Context, outcome string, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.messages.Add(ctx, n, metric.WithAttributes(attribute.String("outcome", outcome)))
}
