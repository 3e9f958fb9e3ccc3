package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/teslashibe/phoneguard/internal/log"
)

// Sink receives broadcast messages. *Client is the websocket
// implementation; tests use channel sinks.
type Sink interface {
	Outbox() chan Message
}

// Hub maintains the set of active clients and broadcasts messages to them.
// The last message is kept and replayed to clients that join later, so a
// dashboard opened mid-alert shows the current state immediately.
type Hub struct {
	name   string
	logger *slog.Logger

	clients    map[Sink]bool
	broadcast  chan Message
	register   chan Sink
	unregister chan Sink

	mu      sync.RWMutex
	last    *Message
	running bool
}

// New creates a new Hub. A nil logger uses the global one.
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = log.L()
	}
	return &Hub{
		name:       name,
		logger:     logger.With("component", "hub", "hub", name),
		clients:    make(map[Sink]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan Sink),
		unregister: make(chan Sink),
	}
}

// Run is the hub's main loop. It returns when ctx is cancelled, closing
// every client's outbox.
func (h *Hub) Run(ctx context.Context) {
	h.mu.Lock()
	h.running = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		for client := range h.clients {
			close(client.Outbox())
			delete(h.clients, client)
		}
		h.running = false
		h.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			last := h.last
			h.mu.Unlock()
			if last != nil {
				select {
				case client.Outbox() <- *last:
				default:
				}
			}
			h.logger.Debug("client connected", "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Outbox())
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client disconnected", "clients", count)

		case message := <-h.broadcast:
			h.mu.Lock()
			h.last = &message
			for client := range h.clients {
				select {
				case client.Outbox() <- message:
				default:
					// Client's buffer is full - they're too slow
					close(client.Outbox())
					delete(h.clients, client)
					h.logger.Warn("dropped slow client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a client. It blocks until the hub loop accepts it or ctx
// ends.
func (h *Hub) Register(ctx context.Context, s Sink) bool {
	select {
	case h.register <- s:
		return true
	case <-ctx.Done():
		return false
	}
}

// Unregister removes a client and closes its outbox.
func (h *Hub) Unregister(ctx context.Context, s Sink) {
	select {
	case h.unregister <- s:
	case <-ctx.Done():
	}
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// BroadcastJSON encodes and broadcasts a JSON message
func (h *Hub) BroadcastJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// BroadcastBinary broadcasts binary data (e.g., camera frames)
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(NewBinaryMessage(data))
}

// Last returns the most recent broadcast message.
func (h *Hub) Last() (Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.last == nil {
		return Message{}, false
	}
	return *h.last, true
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning returns whether the hub is running
func (h *Hub) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}
