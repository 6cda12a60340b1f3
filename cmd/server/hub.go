package main

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ivanzxc/go-rppg-stream/internal/logging"
	"github.com/ivanzxc/go-rppg-stream/internal/metrics"
)

const (
	writeWait  = 200 * time.Millisecond
	pingPeriod = 30 * time.Second
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type frame struct {
	messageType int
	data        []byte
}

// client owns one connection. Only its writePump writes to conn.
type client struct {
	conn *websocket.Conn
	send chan frame
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case f, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(f.messageType, f.data); err != nil {
				logging.Debug().Err(err).Str("remote", c.conn.RemoteAddr().String()).Msg("ws write failed")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Hub fans NATS messages out to every connected websocket client.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]bool
}

func newHub() *Hub {
	return &Hub{clients: make(map[*client]bool)}
}

func (h *Hub) add(conn *websocket.Conn) *client {
	c := &client{conn: conn, send: make(chan frame, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = true
	metrics.WSClients.Set(float64(len(h.clients)))
	h.mu.Unlock()
	return c
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	h.drop(c)
	h.mu.Unlock()
}

// drop closes the client's queue once. h.mu must be held.
func (h *Hub) drop(c *client) {
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.WSClients.Set(float64(len(h.clients)))
}

func (h *Hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// broadcast queues b for every client. A client whose queue is full is
// too slow to keep up and gets disconnected.
func (h *Hub) broadcast(messageType int, b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- frame{messageType: messageType, data: b}:
		default:
			logging.Warn().Str("remote", c.conn.RemoteAddr().String()).Msg("ws client too slow, dropped")
			h.drop(c)
		}
	}
}

func (h *Hub) broadcastBinary(b []byte) { h.broadcast(websocket.BinaryMessage, b) }
func (h *Hub) broadcastText(b []byte)   { h.broadcast(websocket.TextMessage, b) }

// serveWS upgrades the request and keeps the client registered until it
// stops reading.
func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn().Err(err).Msg("ws upgrade")
		return
	}
	c := h.add(conn)
	go c.writePump()
	defer func() {
		h.remove(c)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
