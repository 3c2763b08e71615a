package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kmorling/netscout/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Per-client send queue; slow consumers are dropped when it fills
	sendQueueSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Event is a single message on the event feed.
type Event struct {
	Type    string      `json:"type"`
	Time    time.Time   `json:"time"`
	Payload interface{} `json:"payload,omitempty"`
}

// eventHub fans events out to every connected WebSocket client.
type eventHub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan Event
	done       chan struct{}
	stopOnce   sync.Once
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

func newEventHub() *eventHub {
	return &eventHub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Event, 256),
		done:       make(chan struct{}),
	}
}

func (h *eventHub) run() {
	clients := make(map[*client]struct{})
	for {
		select {
		case c := <-h.register:
			clients[c] = struct{}{}
		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
			}
		case ev := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- ev:
				default:
					// Client can't keep up; drop it.
					delete(clients, c)
					close(c.send)
				}
			}
		case <-h.done:
			for c := range clients {
				close(c.send)
			}
			return
		}
	}
}

func (h *eventHub) stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// publish queues an event for broadcast. Events are dropped when the hub
// queue is full rather than blocking the scan.
func (h *eventHub) publish(eventType string, payload interface{}) {
	ev := Event{Type: eventType, Time: time.Now(), Payload: payload}
	select {
	case h.broadcast <- ev:
	default:
		logging.Debug("Event dropped, broadcast queue full", zap.String("type", eventType))
	}
}

// serve upgrades the request and streams events until the client leaves.
func (h *eventHub) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := &client{conn: conn, send: make(chan Event, sendQueueSize)}
	h.register <- c
	logging.LogConnection(r.RemoteAddr, "event_client_connected")

	go c.writeLoop()
	c.readLoop(h, r.RemoteAddr)
}

// readLoop consumes (and discards) client messages so pings and close
// frames are processed.
func (c *client) readLoop(h *eventHub, remoteAddr string) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
		logging.LogConnection(remoteAddr, "event_client_disconnected")
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				logging.Error("Failed to marshal event", zap.Error(err))
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
