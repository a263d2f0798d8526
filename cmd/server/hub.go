package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/xtding233/junkroom/internal/session"
)

const (
	sendBuffer = 64
	writeWait  = 5 * time.Second
)

type wsMessage struct {
	Type    string `json:"type"` // "view" or "feedback"
	Payload any    `json:"payload"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// hub fans session updates out to websocket clients. Publish never blocks:
// a client whose buffer is full misses that message.
type hub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	clients  map[*client]struct{}
	lastView []byte // newest encoded view, handed to clients as they join
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		log: logger.With("component", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // local front-end
		},
		clients: make(map[*client]struct{}),
	}
}

func (h *hub) publish(kind string, payload any) {
	b, err := json.Marshal(wsMessage{Type: kind, Payload: payload})
	if err != nil {
		h.log.Error("encode push", "type", kind, "err", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if kind == "view" {
		h.lastView = b
	}
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
		}
	}
}

func (h *hub) publishView(v session.View) { h.publish("view", v) }

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// closeAll drops every client; used on shutdown.
func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

// serve upgrades the request and pushes the newest view, then every later
// message, until the client goes away. Joining and seeding happen under the
// same lock as publish, so nothing published meanwhile is lost or reordered.
func (h *hub) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	if h.lastView != nil {
		c.send <- h.lastView
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Info("client connected", "remote", r.RemoteAddr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// intents go over HTTP; reads only detect the close
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		_ = conn.Close()
		h.log.Info("client disconnected", "remote", r.RemoteAddr)
	}()
	for {
		select {
		case <-done:
			return
		case b := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}
}
