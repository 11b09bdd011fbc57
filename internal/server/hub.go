package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/verte-zerg/keyrush/internal/leaderboard"
	"github.com/verte-zerg/keyrush/internal/model"
)

const (
	clientBuffer = 64
	writeTimeout = 10 * time.Second
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, clientBuffer),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer func() {
		if cerr := c.conn.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()
	for msg := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// Hub fans submitted scores out to live stream subscribers.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]bool)}
}

func (h *Hub) add(conn *websocket.Conn) *client {
	c := newClient(conn)
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	return c
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// PublishScore sends score to every subscriber. Subscribers that cannot keep up are dropped.
func (h *Hub) PublishScore(score model.Score) {
	payload, err := json.Marshal(score)
	if err != nil {
		logWarn("Failed to marshal score %d: %v", score.ID, err)
		return
	}
	data, err := json.Marshal(leaderboard.StreamMessage{Type: leaderboard.MsgScore, Payload: payload})
	if err != nil {
		logWarn("Failed to marshal stream message: %v", err)
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			logWarn("Stream subscriber too slow, disconnecting")
			h.remove(c)
		}
	}
}

// ClientCount reports the number of live subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
