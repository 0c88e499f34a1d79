package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/0xbyt4/hermes-agent/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || isAllowedOrigin(origin) {
			return true
		}
		logger.WarnCF("ws", "Rejected WebSocket from disallowed origin", map[string]interface{}{"origin": origin})
		return false
	},
}

const (
	statusInterval = 5 * time.Second
	pingInterval   = 30 * time.Second
	readTimeout    = 60 * time.Second
	writeTimeout   = 10 * time.Second
	clientQueue    = 64
)

// WSEvent is one frame on the gateway event stream.
type WSEvent struct {
	Type      string      `json:"type"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func newWSEvent(eventType string, data interface{}) WSEvent {
	return WSEvent{
		Type:      eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}
}

// WSClient is a connected stream subscriber.
type WSClient struct {
	conn  *websocket.Conn
	queue chan []byte
}

// WSHub fans gateway events out to WebSocket clients. A client whose queue
// is full is disconnected rather than slowing the others down.
type WSHub struct {
	server  *Server
	mu      sync.Mutex
	clients map[*WSClient]struct{}
	closed  bool
}

// NewWSHub creates a hub reporting status from server.
func NewWSHub(server *Server) *WSHub {
	return &WSHub{server: server, clients: make(map[*WSClient]struct{})}
}

// Run pushes periodic status updates until ctx is cancelled, then
// disconnects every client.
func (h *WSHub) Run(ctx context.Context) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case <-ticker.C:
			if h.ClientCount() > 0 {
				h.Broadcast("status_update", h.server.statusSnapshot(ctx))
			}
		}
	}
}

func (h *WSHub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		close(c.queue)
		delete(h.clients, c)
	}
}

// Broadcast queues an event for every client.
func (h *WSHub) Broadcast(eventType string, data interface{}) {
	frame, err := json.Marshal(newWSEvent(eventType, data))
	if err != nil {
		logger.WarnCF("ws", "Dropping unencodable event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.queue <- frame:
		default:
			close(c.queue)
			delete(h.clients, c)
			logger.DebugC("ws", "Dropped slow client")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *WSHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// add registers c with the initial status already queued. It fails once
// the hub has shut down.
func (h *WSHub) add(c *WSClient, initial []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	c.queue <- initial
	h.clients[c] = struct{}{}
	return true
}

func (h *WSHub) remove(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.queue)
		delete(h.clients, c)
	}
}

// HandleWebSocket upgrades the request. It sits behind authMiddleware, so
// the upgrade itself is the only authenticated step.
func (h *WSHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	initial, err := json.Marshal(newWSEvent("initial_state", h.server.statusSnapshot(r.Context())))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.ErrorCF("ws", "WebSocket upgrade failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	c := &WSClient{conn: conn, queue: make(chan []byte, clientQueue)}
	if !h.add(c, initial) {
		conn.Close()
		return
	}
	logger.DebugC("ws", "Client connected")

	go c.writeLoop()
	go func() {
		c.readLoop()
		h.remove(c)
		logger.DebugC("ws", "Client disconnected")
	}()
}

// readLoop discards client frames; it only exists to see pongs and the
// close handshake.
func (c *WSClient) readLoop() {
	defer c.conn.Close()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *WSClient) writeLoop() {
	ping := time.NewTicker(pingInterval)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.queue:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
