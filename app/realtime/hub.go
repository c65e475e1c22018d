package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Publisher is the fire-and-forget broadcast capability handed to the
// matching, notification and claim components. Publish must never block the
// caller and its failures must never fail the operation that triggered it.
type Publisher interface {
	Publish(event string, payload interface{})
}

// Events broadcast to connected dashboard clients.
const (
	EventNewReport          = "newReport"
	EventNewNotification    = "newNotification"
	EventNewClaimRequest    = "newClaimRequest"
	EventClaimStatusUpdated = "claimStatusUpdated"
	EventReportUpdated      = "reportUpdated"
	EventReportDeleted      = "reportDeleted"
	EventItemMatched        = "itemMatched"
)

type envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

const (
	writeWait      = 10 * time.Second
	clientBuffer   = 32
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboard clients connect from the frontend origin; auth happens at
	// the session level, not the socket level.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts events to every connected dashboard client. Slow clients
// are dropped rather than ever back-pressuring a publish.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]bool)}
}

var _ Publisher = (*Hub)(nil)

// Publish marshals the event and queues it to every connected client.
// Errors are logged and swallowed.
func (h *Hub) Publish(event string, payload interface{}) {
	message, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		slog.Error("Failed to marshal realtime event", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- message:
		default:
			// Client is not keeping up; closing the channel makes its
			// writer exit and unregister.
			go h.unregister(c)
		}
	}

	slog.Debug("Published realtime event", "event", event, "clients", len(h.clients))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades an HTTP request to a websocket connection and registers
// it with the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	slog.Debug("Dashboard client connected", "remote", conn.RemoteAddr().String())

	go h.writeLoop(c)
	go h.readLoop(c)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	h.mu.Unlock()

	close(c.send)
	c.conn.Close()
}

func (h *Hub) writeLoop(c *client) {
	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.unregister(c)
			return
		}
	}
}

// readLoop discards inbound messages; the channel is broadcast-only. Its
// real job is detecting disconnects.
func (h *Hub) readLoop(c *client) {
	defer h.unregister(c)
	c.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
