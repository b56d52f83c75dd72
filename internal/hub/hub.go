// Package hub fans accepted token records out to live WebSocket
// subscribers. Delivery is best-effort: a slow or dead connection is
// dropped, never waited on.
package hub

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"base-token-tracker/internal/domain"
)

const (
	sendBufferSize = 32
	writeTimeout   = 5 * time.Second
)

// ErrHubClosed is returned by Subscribe after the hub has shut down.
var ErrHubClosed = errors.New("hub is closed")

// client owns the write side of one subscriber connection. A dedicated
// writer goroutine drains sendCh so publishers never block on the socket.
type client struct {
	conn   *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
	once   sync.Once
}

func (c *client) run(h *Hub) {
	for {
		select {
		case msg := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.Unsubscribe(c.conn)
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) stop() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Hub tracks subscriber connections and broadcasts record events.
// Within one connection messages arrive in publish order, the initial
// snapshot always first; no ordering holds across connections.
type Hub struct {
	mu         sync.Mutex
	clients    map[*websocket.Conn]*client
	closed     bool
	snapshotFn func() []domain.TokenRecord
	logger     *log.Logger
	now        func() int64
}

// NewHub creates a hub. snapshotFn supplies the current store contents
// for the initial message sent to every new subscriber.
func NewHub(snapshotFn func() []domain.TokenRecord, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		clients:    make(map[*websocket.Conn]*client),
		snapshotFn: snapshotFn,
		logger:     logger,
		now:        func() int64 { return time.Now().UnixMilli() },
	}
}

// Subscribe registers the connection and immediately queues the full
// current snapshot. Events published before the subscribe call are never
// replayed to this connection.
func (h *Hub) Subscribe(conn *websocket.Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		conn.Close()
		return ErrHubClosed
	}

	initial, err := json.Marshal(domain.Envelope{
		Type:      domain.TypeInitialTokens,
		Data:      h.snapshotFn(),
		Timestamp: h.now(),
	})
	if err != nil {
		conn.Close()
		return err
	}

	c := &client{
		conn:   conn,
		sendCh: make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
	c.sendCh <- initial
	h.clients[conn] = c
	go c.run(h)

	return nil
}

// Unsubscribe drops the connection. Safe to call for unknown connections.
func (h *Hub) Unsubscribe(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		c.stop()
	}
}

// Publish queues a NEW_TOKEN event for every live subscriber. A
// subscriber whose send buffer is full is dropped rather than waited on.
func (h *Hub) Publish(rec domain.TokenRecord) {
	msg, err := json.Marshal(domain.Envelope{
		Type:      domain.TypeNewToken,
		Data:      rec,
		Timestamp: h.now(),
	})
	if err != nil {
		h.logger.Printf("Failed to marshal broadcast: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, c := range h.clients {
		select {
		case c.sendCh <- msg:
		default:
			h.logger.Printf("Dropping slow subscriber %s", conn.RemoteAddr())
			delete(h.clients, conn)
			c.stop()
		}
	}
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close drops every subscriber and rejects future subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for conn, c := range h.clients {
		delete(h.clients, conn)
		c.stop()
	}
}
