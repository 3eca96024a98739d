// Package ws streams flush reports to connected dashboard clients over
// WebSocket. Delivery is best-effort: a client that cannot keep up is
// disconnected rather than allowed to block the flush path.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Report is one flush window pushed to clients.
type Report struct {
	RunID         string        `json:"run_id"`
	Probe         string        `json:"probe"`
	Starved       time.Duration `json:"starved_ns"`
	Backpressured time.Duration `json:"backpressured_ns"`
	ReportedAt    time.Time     `json:"reported_at"`
}

const clientBuffer = 16

// Hub fans flush reports out to all connected clients.
type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan Report
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Dashboard may be served from another origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// HandleConnection upgrades the request and registers the client.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{conn: conn, send: make(chan Report, clientBuffer)}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("Dashboard client connected", zap.Int("clients", n))

	go h.writeLoop(cl)
	go h.readLoop(cl)
}

// Broadcast sends a report to every connected client without blocking; slow
// clients are dropped.
func (h *Hub) Broadcast(r Report) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for cl := range h.clients {
		select {
		case cl.send <- r:
		default:
			h.dropLocked(cl)
		}
	}
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for cl := range h.clients {
		h.dropLocked(cl)
	}
}

// dropLocked removes a client; callers must hold h.mu.
func (h *Hub) dropLocked(cl *client) {
	if _, ok := h.clients[cl]; !ok {
		return
	}
	delete(h.clients, cl)
	close(cl.send)
}

// writeLoop pushes reports to one client until its send channel closes.
func (h *Hub) writeLoop(cl *client) {
	defer cl.conn.Close()

	for r := range cl.send {
		if err := cl.conn.WriteJSON(r); err != nil {
			h.logger.Debug("WebSocket write failed", zap.Error(err))
			h.drop(cl)
			return
		}
	}
}

// readLoop discards inbound frames and detects disconnects.
func (h *Hub) readLoop(cl *client) {
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			h.drop(cl)
			return
		}
	}
}

func (h *Hub) drop(cl *client) {
	h.mu.Lock()
	h.dropLocked(cl)
	h.mu.Unlock()
}
