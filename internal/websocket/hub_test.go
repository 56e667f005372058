package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"quantkit/internal/fetch"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startHub(t *testing.T, m *Metrics) (*Hub, string) {
	t.Helper()
	hub := NewHub(quietLogger(), m)
	hub.Start()
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Stop()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_StreamsStoreChanges(t *testing.T) {
	hub, url := startHub(t, nil)
	conn := dial(t, url)

	hello := readMessage(t, conn)
	assert.Equal(t, TypeConnection, hello.Type)
	assert.Equal(t, 1, hub.ClientCount())

	store := fetch.NewStore(fetch.WithObserver(hub.PublishChange))
	store.Put("http://quotes.example.com/a", 1)
	store.Fail("http://quotes.example.com/b", errors.New("exhausted"))

	ok := readMessage(t, conn)
	assert.Equal(t, TypeFetchSucceeded, ok.Type)
	assert.Equal(t, map[string]any{"url": "http://quotes.example.com/a"}, ok.Data)

	failed := readMessage(t, conn)
	assert.Equal(t, TypeFetchFailed, failed.Type)
	assert.Equal(t, map[string]any{"url": "http://quotes.example.com/b", "error": "exhausted"}, failed.Data)
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub, url := startHub(t, nil)
	conn := dial(t, url)
	readMessage(t, conn)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestHub_StopClosesClients(t *testing.T) {
	hub, url := startHub(t, nil)
	conn := dial(t, url)
	readMessage(t, conn)

	hub.Stop()
	hub.Stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	hub := NewHub(quietLogger(), nil)
	// not started: the queue fills and later messages are dropped
	for i := 0; i < broadcastBuffer+10; i++ {
		hub.Broadcast(TypeFetchSucceeded, FetchEvent{URL: "u"})
	}
	assert.Len(t, hub.broadcast, broadcastBuffer)

	hub.Stop()
	hub.Broadcast(TypeFetchSucceeded, FetchEvent{URL: "u"})
}

func TestHub_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	m, err := NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)

	hub, url := startHub(t, m)
	conn := dial(t, url)
	readMessage(t, conn)
	hub.Broadcast(TypeFetchSucceeded, FetchEvent{URL: "u"})
	readMessage(t, conn)

	collect := func() map[string]int64 {
		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(context.Background(), &rm))
		got := map[string]int64{}
		for _, sm := range rm.ScopeMetrics {
			for _, md := range sm.Metrics {
				if sum, ok := md.Data.(metricdata.Sum[int64]); ok {
					for _, dp := range sum.DataPoints {
						got[md.Name] += dp.Value
					}
				}
			}
		}
		return got
	}
	// the counter is bumped after the frame is queued
	assert.Eventually(t, func() bool { return collect()["websocket_messages_total"] == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(1), collect()["websocket_clients_active"])
}
