package preview

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Connection is one browser tab subscribed to reload notifications
type Connection struct {
	Conn *websocket.Conn
	mu   sync.Mutex // Protects writes to Conn
}

// Send sends a message to this connection.
// Thread-safe: multiple goroutines can call Send concurrently.
func (c *Connection) Send(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// Hub tracks the open preview connections.
//
// Thread-safe: safe for concurrent access from multiple goroutines.
type Hub struct {
	conns map[*Connection]struct{}
	mu    sync.RWMutex
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{conns: make(map[*Connection]struct{})}
}

// Register adds a connection. Registering twice is a no-op.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
}

// Unregister removes a connection. Should be called when the socket closes.
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

// GetAll returns a snapshot of all connections
func (h *Hub) GetAll() []*Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]*Connection, 0, len(h.conns))
	for conn := range h.conns {
		result = append(result, conn)
	}
	return result
}

// Count returns the number of open connections
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast sends data to every connection and drops the ones that fail.
// It returns the number of successful sends.
func (h *Hub) Broadcast(data []byte) int {
	sent := 0
	for _, conn := range h.GetAll() {
		if err := conn.Send(websocket.TextMessage, data); err != nil {
			h.Unregister(conn)
			_ = conn.Conn.Close()
			continue
		}
		sent++
	}
	return sent
}
