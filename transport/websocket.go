package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/RyanBlaney/pulso/logging"
	"github.com/RyanBlaney/pulso/session"
)

const writeTimeout = 200 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans session updates out to WebSocket clients. A client that joins
// mid-session first receives the latest update.
type Hub struct {
	logger logging.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
	last  []byte
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		conns: make(map[*websocket.Conn]bool),
		logger: logging.WithFields(logging.Fields{
			"component": "ws_hub",
		}),
	}
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", logging.Fields{"error": err.Error()})
		return
	}

	defer func() {
		h.remove(conn)
		conn.Close()
	}()
	if err := h.add(conn); err != nil {
		return
	}

	// clients never send anything useful; reading detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Publish implements session.Sink
func (h *Hub) Publish(_ context.Context, u session.Update) error {
	payload, err := json.Marshal(u.Message())
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}

	h.mu.Lock()
	h.last = payload
	h.mu.Unlock()

	h.broadcast(payload)
	return nil
}

// Len returns the number of connected clients
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close disconnects every client
func (h *Hub) Close() {
	for _, c := range h.snapshot() {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeTimeout))
		_ = c.Close()
		h.remove(c)
	}
}

// add registers c and replays the latest update under the same lock, so a
// concurrent broadcast cannot overtake it
func (h *Hub) add(c *websocket.Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = true
	h.logger.Debug("Client connected", logging.Fields{"clients": len(h.conns)})

	if h.last == nil {
		return nil
	}
	_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.WriteMessage(websocket.TextMessage, h.last)
}

func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
}

func (h *Hub) snapshot() []*websocket.Conn {
	h.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	return clients
}

func (h *Hub) broadcast(b []byte) {
	for _, c := range h.snapshot() {
		if err := h.write(c, b); err != nil {
			_ = c.Close()
			h.remove(c)
		}
	}
}

// write serializes writers per connection; gorilla allows one at a time
func (h *Hub) write(c *websocket.Conn, b []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.WriteMessage(websocket.TextMessage, b)
}
