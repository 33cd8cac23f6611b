// Package hub holds live browser connections and fans reload
// notifications out to them over websockets.
package hub

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// ReloadToken is the literal payload clients depend on.
const ReloadToken = "reload"

const (
	// writeWait bounds a single delivery attempt.
	writeWait = 10 * time.Second

	// maxPayload bounds broadcast payloads so a malformed watcher event
	// cannot balloon per-connection memory.
	maxPayload = 4096

	// sendBuffer is the per-client outbound queue; a client that falls
	// this far behind is pruned, never retried.
	sendBuffer = 8
)

// NotificationHub manages the connection set. Registration,
// deregistration, and broadcast are all safe under concurrency; a
// single mutex serializes the set, which is ample for development-time
// browser-tab cardinality.
type NotificationHub struct {
	mu             sync.Mutex
	clients        map[*client]struct{}
	allowedOrigins []string
	logger         *slog.Logger
}

type client struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a NotificationHub. allowedOrigins follows the
// websocket.AcceptOptions origin-pattern syntax.
func New(allowedOrigins []string, logger *slog.Logger) *NotificationHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHub{
		clients:        make(map[*client]struct{}),
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

// ServeHTTP upgrades the request and holds the connection open until
// the client goes away. Mounted at /ws/hot-reload.
func (h *NotificationHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.allowedOrigins,
	})
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	h.register(c)
	defer h.unregister(c)

	go c.writePump()

	// Drain inbound frames to keep the connection alive; the payload
	// is irrelevant, the read only detects disconnects.
	conn.SetReadLimit(maxPayload)
	for {
		if _, _, err := conn.Read(r.Context()); err != nil {
			return
		}
	}
}

// Broadcast delivers message to every open connection. Oversized
// payloads are truncated to the payload bound. Connections that cannot
// receive are pruned.
func (h *NotificationHub) Broadcast(message []byte) {
	if len(message) > maxPayload {
		message = message[:maxPayload]
	}

	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		select {
		case c.send <- message:
		default:
			h.unregister(c)
		}
	}
}

// BroadcastReload sends the reload token to every open connection.
func (h *NotificationHub) BroadcastReload() {
	h.Broadcast([]byte(ReloadToken))
}

// Count returns the number of registered connections.
func (h *NotificationHub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client, typically at shutdown.
func (h *NotificationHub) Close() {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, c := range targets {
		c.close()
	}
}

func (h *NotificationHub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("reload client connected", "total", total)
}

func (h *NotificationHub) unregister(c *client) {
	h.mu.Lock()
	_, present := h.clients[c]
	delete(h.clients, c)
	total := len(h.clients)
	h.mu.Unlock()

	if present {
		c.close()
		h.logger.Debug("reload client disconnected", "total", total)
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close(websocket.StatusNormalClosure, "")
	})
}

func (c *client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.close()
				return
			}
		}
	}
}
