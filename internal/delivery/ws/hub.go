// Package ws streams notification changes to browser clients over websockets.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"minihub/internal/domain"
	"minihub/internal/notify"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// KindSnapshot is sent once to every new connection with the current set.
const KindSnapshot notify.EventKind = "snapshot"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	key  string
	conn *websocket.Conn
	send chan []byte
}

type message struct {
	key  string
	data []byte
}

// Hub fans notification events out to the clients connected under the
// event's session key. Clients whose send buffer is full are dropped rather
// than blocking the broadcast.
type Hub struct {
	clients    map[string]map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan message
	done       chan struct{}
	connected  atomic.Int64
	snapshot   func(key string) []domain.Notification
	log        *logrus.Logger
}

func NewHub(snapshot func(key string) []domain.Notification, logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan message, 256),
		done:       make(chan struct{}),
		snapshot:   snapshot,
		log:        logger,
	}
}

// Run owns the client set until ctx is cancelled, then closes every
// connection's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for _, set := range h.clients {
			for c := range set {
				h.drop(c)
			}
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			set, ok := h.clients[c.key]
			if !ok {
				set = make(map[*client]struct{})
				h.clients[c.key] = set
			}
			set[c] = struct{}{}
			h.connected.Add(1)
			h.log.Debugf("WS: client connected (%d active)", h.connected.Load())
		case c := <-h.unregister:
			if _, ok := h.clients[c.key][c]; ok {
				h.drop(c)
			}
		case msg := <-h.broadcast:
			for c := range h.clients[msg.key] {
				select {
				case c.send <- msg.data:
				default:
					h.log.Warn("WS: dropping slow client")
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients[c.key], c)
	if len(h.clients[c.key]) == 0 {
		delete(h.clients, c.key)
	}
	close(c.send)
	h.connected.Add(-1)
}

// Connected reports the number of registered clients.
func (h *Hub) Connected() int {
	return int(h.connected.Load())
}

// Publish queues ev for the clients of key. It never blocks once the hub
// stopped.
func (h *Hub) Publish(key string, ev notify.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Errorf("WS: Failed to encode event: %v", err)
		return
	}
	select {
	case h.broadcast <- message{key: key, data: data}:
	case <-h.done:
	}
}

// Serve upgrades the request and streams the notifications of key. Callers
// authenticate the request first.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, key string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("WS: upgrade failed: %v", err)
		return
	}
	c := &client{key: key, conn: conn, send: make(chan []byte, sendBuffer)}

	var active []domain.Notification
	if h.snapshot != nil {
		active = h.snapshot(key)
	}
	if data, err := json.Marshal(notify.Event{Kind: KindSnapshot, Active: active}); err == nil {
		c.send <- data
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

// readPump only watches for close frames and pongs; clients never send data.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warnf("WS: read error: %v", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
