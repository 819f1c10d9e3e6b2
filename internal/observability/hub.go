package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsSendBufferSize = 64
	wsPingInterval   = 30 * time.Second
	wsPongTimeout    = 60 * time.Second
)

// Event is one debug-stream message: a partition or zone transition, sent
// to every connected websocket client. There is no subscribe/unsubscribe
// protocol here, unlike the teacher's multi-channel hub — the debug stream
// has exactly one channel.
type Event struct {
	Kind      string `json:"kind"` // "partition" or "zone"
	Index     int    `json:"index"`
	State     string `json:"state"`
	Timestamp string `json:"timestamp"`
}

// Hub fans out Events to connected debug websocket clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*hubClient]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*hubClient]struct{})}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		c.conn.Close()
		delete(h.clients, c)
	}
}

// Broadcast sends ev to every connected client, dropping it for any client
// whose send buffer is full rather than blocking the caller.
func (h *Hub) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

// ClientCount returns the number of connected debug-stream clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *hubClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *hubClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		close(c.send)
	}
}

type hubClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 512,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

// handleDebugStream upgrades the request to a websocket and streams Events
// to it until the client disconnects. There is no authentication here: the
// stream is read-only diagnostic output, gated entirely by whether
// HEALTH_ADDR is configured at all (spec §6).
func (h *Hub) handleDebugStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &hubClient{hub: h, conn: conn, send: make(chan []byte, wsSendBufferSize)}
	h.register(c)
	go c.writePump()
	c.readPump()
}

// readPump discards incoming messages (the stream is output-only) and exists
// only to detect client disconnects and keep the pong deadline alive.
func (c *hubClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadDeadline(time.Now().Add(wsPingInterval + wsPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPingInterval + wsPongTimeout))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *hubClient) writePump() {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsPongTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsPongTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
