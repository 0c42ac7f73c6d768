package devtools

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/hookrt/pkg/hooks"
)

// MessageType identifies a message sent to devtools clients.
type MessageType string

const (
	MessageEvent   MessageType = "event"
	MessageHistory MessageType = "history"
)

// EventMessage is the wire form of a hooks.Event.
type EventMessage struct {
	Seq      uint64    `json:"seq"`
	Time     time.Time `json:"time"`
	Kind     string    `json:"kind"`
	Runtime  string    `json:"runtime"`
	Instance uint64    `json:"instance,omitempty"`
	Name     string    `json:"name,omitempty"`
	Slot     int       `json:"slot"`
	Count    int       `json:"count,omitempty"`
	Duration float64   `json:"durationMs,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Message is sent to clients via WebSocket.
type Message struct {
	Type   MessageType    `json:"type"`
	Event  *EventMessage  `json:"event,omitempty"`
	Events []EventMessage `json:"events,omitempty"`
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHistory sets how many recent events are kept for new clients.
// Default: 256.
func WithHistory(n int) HubOption {
	return func(h *Hub) {
		if n >= 0 {
			h.historyCap = n
		}
	}
}

// WithAllowedOrigins sets the origins allowed to connect. "*" allows any
// origin. Without this option only same-origin requests are accepted.
func WithAllowedOrigins(origins ...string) HubOption {
	return func(h *Hub) {
		h.origins = append(h.origins, origins...)
	}
}

// WithHubLogger sets the hub's logger.
func WithHubLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

// client is one connected WebSocket with its outgoing queue.
type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// clientBuffer is the number of messages queued per client before it is
// considered too slow and dropped.
const clientBuffer = 64

// Hub fans runtime events out to WebSocket clients. Observe never blocks on
// the network.
type Hub struct {
	logger     *slog.Logger
	upgrader   websocket.Upgrader
	origins    []string
	historyCap int

	mu      sync.RWMutex
	clients map[*client]struct{}
	history []EventMessage
	seq     uint64
}

var _ hooks.Observer = (*Hub)(nil)

// NewHub creates a Hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		historyCap: 256,
		clients:    make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if len(h.origins) > 0 {
		h.upgrader.CheckOrigin = h.checkOrigin
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	for _, o := range h.origins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// Observe implements hooks.Observer.
func (h *Hub) Observe(ev hooks.Event) {
	msg := EventMessage{
		Time:     time.Now(),
		Kind:     ev.Kind.String(),
		Runtime:  ev.Runtime,
		Instance: uint64(ev.Instance),
		Name:     ev.Name,
		Slot:     ev.Slot,
		Count:    ev.Count,
		Duration: float64(ev.Duration.Microseconds()) / 1000,
	}
	if ev.Err != nil {
		msg.Error = ev.Err.Error()
	}

	h.mu.Lock()
	h.seq++
	msg.Seq = h.seq
	if h.historyCap > 0 {
		if len(h.history) == h.historyCap {
			copy(h.history, h.history[1:])
			h.history = h.history[:len(h.history)-1]
		}
		h.history = append(h.history, msg)
	}
	h.mu.Unlock()

	h.broadcast(Message{Type: MessageEvent, Event: &msg})
}

// Recent returns the retained events, oldest first.
func (h *Hub) Recent() []EventMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]EventMessage(nil), h.history...)
}

// HandleWebSocket upgrades the request and streams events until the client
// disconnects. A new client first receives the retained history.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", slog.Any("error", err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	if data, err := json.Marshal(Message{Type: MessageHistory, Events: h.Recent()}); err == nil {
		c.send <- data
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.remove(c)
			for range c.send {
			}
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// broadcast queues msg for every client. Clients whose queue is full are
// dropped.
func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping slow devtools client")
			delete(h.clients, c)
			c.close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}
