package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"quantkit/internal/fetch"
	"quantkit/internal/infrastructure"
)

// Message types
const (
	TypeConnection     = "connection"
	TypeFetchSucceeded = "fetch:succeeded"
	TypeFetchFailed    = "fetch:failed"
)

// broadcastBuffer bounds queued broadcasts; further messages are dropped
const broadcastBuffer = 256

// Message is the envelope of every frame sent to clients
type Message struct {
	Type      string `json:"type"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
	TraceID   string `json:"trace_id,omitempty"`
}

// FetchEvent is the data of fetch:succeeded and fetch:failed messages
type FetchEvent struct {
	URL   string `json:"url"`
	Error string `json:"error,omitempty"`
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	logger  *slog.Logger
	metrics *Metrics

	quit     chan struct{}
	done     chan struct{}
	running  bool
	stopOnce sync.Once
}

// NewHub creates a hub. m may be nil.
func NewHub(logger *slog.Logger, m *Metrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     infrastructure.WithComponent(logger, "websocket.hub"),
		metrics:    m,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs the hub loop in a new goroutine
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

// Stop ends the hub loop and disconnects every client
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
	})
	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()
	if running {
		<-h.done
	}
}

func (h *Hub) run() {
	defer close(h.done)
	ctx := context.Background()
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			n := len(h.clients)
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.metrics.clientDelta(ctx, -int64(n))
			h.logger.InfoContext(ctx, "hub_stopped", slog.Int("disconnected", n))
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.metrics.clientDelta(ctx, 1)

			cctx := client.context()
			h.logger.InfoContext(cctx, "client_registered",
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr),
				slog.Int("total_clients", count))

			hello, err := h.encode(TypeConnection, map[string]string{
				"status":    "connected",
				"client_id": client.id,
			}, client.traceID)
			if err == nil {
				select {
				case client.send <- hello:
				default:
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			if ok {
				h.metrics.clientDelta(ctx, -1)
				h.logger.InfoContext(client.context(), "client_unregistered",
					slog.String("client_id", client.id),
					slog.Int("total_clients", count),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			}

		case message := <-h.broadcast:
			h.mu.Lock()
			var sent, dropped int64
			for client := range h.clients {
				select {
				case client.send <- message:
					sent++
				default:
					// slow client
					delete(h.clients, client)
					close(client.send)
					dropped++
					h.logger.WarnContext(client.context(), "client_buffer_full",
						slog.String("client_id", client.id))
				}
			}
			h.mu.Unlock()
			h.metrics.message(ctx, "sent", sent)
			h.metrics.clientDelta(ctx, -dropped)
		}
	}
}

// Broadcast queues a message for every connected client. It never blocks:
// when the queue is full or the hub is stopped the message is dropped.
func (h *Hub) Broadcast(messageType string, data any) {
	msg, err := h.encode(messageType, data, "")
	if err != nil {
		h.logger.Error("message_encode_failed",
			slog.String("type", messageType),
			slog.String("error", err.Error()))
		return
	}
	select {
	case <-h.quit:
		return
	default:
	}
	select {
	case h.broadcast <- msg:
	default:
		h.metrics.message(context.Background(), "dropped", 1)
		h.logger.Warn("broadcast_queue_full", slog.String("type", messageType))
	}
}

// PublishChange broadcasts a store update. It fits fetch.WithObserver.
func (h *Hub) PublishChange(c fetch.Change) {
	if c.Err != nil {
		h.Broadcast(TypeFetchFailed, FetchEvent{URL: c.URL, Error: c.Err.Error()})
		return
	}
	h.Broadcast(TypeFetchSucceeded, FetchEvent{URL: c.URL})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and attaches the connection to the hub
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		h.logger.WarnContext(r.Context(), "websocket_upgrade_failed", slog.String("error", err.Error()))
		return
	}
	client := NewClient(h, conn, infrastructure.GetTraceID(r.Context()), h.logger)
	select {
	case h.register <- client:
	case <-h.quit:
		conn.Close()
		return
	}
	go client.WritePump()
	go client.ReadPump()
}

func (h *Hub) encode(messageType string, data any, traceID string) ([]byte, error) {
	return json.Marshal(Message{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		TraceID:   traceID,
	})
}

// upgrader keeps gorilla's same-origin check
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}
