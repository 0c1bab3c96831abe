// Package feed broadcasts execution-log records to websocket
// subscribers. UI collaborators attach here to watch gate decisions
// and position lifecycle events live.
package feed

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"solana-trading-core/internal/domain"
	"solana-trading-core/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	clientBuffer   = 64
	maxMessageSize = 512
)

// Event is one broadcast record. Kind distinguishes decisions from
// position lifecycle events.
type Event struct {
	Kind     string           `json:"kind"`
	Decision *domain.Decision `json:"decision,omitempty"`
	Position *domain.Position `json:"position,omitempty"`
	AtMs     int64            `json:"at_ms"`
}

// Event kinds.
const (
	KindDecision   = "decision"
	KindOpened     = "position_opened"
	KindClosed     = "position_closed"
	KindReconciled = "position_reconciled"
)

// Hub fans events out to connected websocket clients. Slow consumers
// are dropped rather than allowed to stall the broadcast path.
type Hub struct {
	upgrader websocket.Upgrader
	log      *logrus.Entry

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool

	now func() time.Time
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a broadcast hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Feed is read-only telemetry; origin checks belong to the
			// fronting proxy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log:     logging.L().WithField("component", "feed"),
		clients: make(map[*client]struct{}),
		now:     time.Now,
	}
}

// ServeHTTP upgrades the request and attaches the client to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, clientBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.log.WithField("clients", n).Info("feed client connected")

	go h.writeLoop(c)
	go h.readLoop(c)
}

// PublishDecision broadcasts a gate decision.
func (h *Hub) PublishDecision(d domain.Decision) {
	h.broadcast(Event{Kind: KindDecision, Decision: &d, AtMs: h.now().UnixMilli()})
}

// PositionOpened broadcasts a ledger open.
func (h *Hub) PositionOpened(p domain.Position) {
	h.broadcast(Event{Kind: KindOpened, Position: &p, AtMs: h.now().UnixMilli()})
}

// PositionClosed broadcasts a ledger close.
func (h *Hub) PositionClosed(p domain.Position) {
	h.broadcast(Event{Kind: KindClosed, Position: &p, AtMs: h.now().UnixMilli()})
}

// PositionReconciled broadcasts a ledger reconciliation.
func (h *Hub) PositionReconciled(p domain.Position) {
	h.broadcast(Event{Kind: KindReconciled, Position: &p, AtMs: h.now().UnixMilli()})
}

// Publish satisfies the gate sink interface.
func (h *Hub) Publish(d domain.Decision) {
	h.PublishDecision(d)
}

// ClientCount returns the number of attached clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close detaches all clients and rejects new connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) broadcast(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.WithError(err).Error("marshal feed event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// Slow consumer: drop the client, never block the caller.
			close(c.send)
			delete(h.clients, c)
			h.log.Warn("dropped slow feed client")
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()

	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.detach(c)
			return
		}
	}

	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readLoop drains client frames so pings and close frames are
// processed. The feed accepts no inbound messages.
func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.detach(c)
			return
		}
	}
}

func (h *Hub) detach(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}
