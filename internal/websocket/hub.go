package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"filmstats/internal/operations"
	"filmstats/pkg/contracts/events"
)

// Message types sent by the hub
const (
	TypeConnection = string(events.MessageTypeConnection)
	TypeSnapshot   = string(events.MessageTypeOperationSnapshot)
)

// broadcastBuffer bounds the messages queued while the hub loop is busy
const broadcastBuffer = 64

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// lastSnapshot is replayed to clients that connect mid-run
	lastSnapshot []byte

	logger  *slog.Logger
	metrics *HubMetrics

	messagesSent int64
	dropped      int64

	quit     chan struct{}
	stopOnce sync.Once
	running  bool
}

var _ operations.WebSocketHub = (*Hub)(nil)

// NewHub creates a hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *HubMetrics) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		quit:       make(chan struct{}),
	}
}

// Start runs the hub loop in the background
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

func (h *Hub) run() {
	ctx := context.Background()
	for {
		select {
		case <-h.quit:
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			snapshot := h.lastSnapshot
			h.mu.Unlock()

			h.logger.InfoContext(ctx, "client registered",
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr),
				slog.Int("total_clients", count))
			h.metrics.recordConnection(ctx, 1)

			if msg, err := encode(TypeConnection, map[string]interface{}{
				"status":    "connected",
				"client_id": client.id,
			}); err == nil {
				h.deliver(client, msg)
			}
			if snapshot != nil {
				h.deliver(client, snapshot)
			}

		case client := <-h.unregister:
			h.remove(client, "disconnected")

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			for _, client := range clients {
				if h.deliver(client, message) {
					h.metrics.recordSent(ctx, len(message))
					h.mu.Lock()
					h.messagesSent++
					h.mu.Unlock()
					continue
				}
				h.remove(client, "send buffer full")
				h.metrics.recordDropped(ctx)
			}
		}
	}
}

// deliver queues message for client without blocking. It reports false
// when the client's buffer is full. Clients already removed are skipped.
func (h *Hub) deliver(client *Client, message []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[client] {
		return true
	}
	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// remove drops a client and closes its send channel
func (h *Hub) remove(client *Client, reason string) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("client unregistered",
		slog.String("client_id", client.id),
		slog.String("reason", reason),
		slog.Int("total_clients", count),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))
	h.metrics.recordConnection(context.Background(), -1)
}

func encode(msgType string, data interface{}) ([]byte, error) {
	return json.Marshal(events.NewMessage(events.MessageType(msgType), data))
}

// BroadcastUpdate sends an event to every client. Snapshot events carry the
// whole run state in data; other events also name the step and status.
func (h *Hub) BroadcastUpdate(eventType, step, status string, data interface{}) {
	msg := events.NewMessage(events.MessageType(eventType), data)
	if !msg.IsSnapshot() {
		msg.Subtype = step
		msg.Action = status
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal message",
			slog.String("message_type", eventType),
			slog.String("error", err.Error()))
		return
	}

	if eventType == TypeSnapshot {
		h.mu.Lock()
		h.lastSnapshot = payload
		h.mu.Unlock()
	}

	select {
	case h.broadcast <- payload:
	case <-h.quit:
	default:
		h.mu.Lock()
		h.dropped++
		h.mu.Unlock()
		h.logger.Warn("broadcast queue full, dropping message", slog.String("message_type", eventType))
		h.metrics.recordDropped(context.Background())
	}
}

// Register adds a client. It reports false once the hub is stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.quit:
		return false
	}
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns counters for the health endpoint and tests
func (h *Hub) Stats() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return map[string]interface{}{
		"active_clients": len(h.clients),
		"messages_sent":  h.messagesSent,
		"dropped":        h.dropped,
	}
}

// Stop stops the hub loop and disconnects every client
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)

		h.mu.Lock()
		defer h.mu.Unlock()
		h.running = false
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
	})
}
