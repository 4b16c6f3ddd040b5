package server

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 16
)

// hub fans snapshot messages out to every connected websocket client.
type hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	log     *slog.Logger
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func newHub(log *slog.Logger) *hub {
	return &hub{clients: make(map[*client]struct{}), log: log}
}

// serve owns conn until the peer goes away. The client is registered and
// its first frame read from snapshot under the same lock, so any mutation
// committed afterwards reaches it through broadcast.
func (h *hub) serve(conn *websocket.Conn, snapshot func() ([]byte, error)) {
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if err := h.register(c, snapshot); err != nil {
		h.log.Error("failed to build initial snapshot", "err", err)
		_ = conn.Close()
		return
	}
	defer h.unregister(c)

	go c.writeLoop(h.log)

	conn.SetReadLimit(512)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *hub) broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// too slow to keep up; the read loop notices and unregisters
			h.log.Warn("dropping slow websocket client", "remote", c.conn.RemoteAddr().String())
			_ = c.conn.Close()
		}
	}
}

func (h *hub) register(c *client, snapshot func() ([]byte, error)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	initial, err := snapshot()
	if err != nil {
		return err
	}
	c.send <- initial
	h.clients[c] = struct{}{}
	h.log.Info("websocket client connected", "clients", len(h.clients))
	return nil
}

func (h *hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		h.log.Info("websocket client disconnected", "clients", len(h.clients))
	}
	c.once.Do(func() { close(c.send) })
}

func (h *hub) close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		_ = c.conn.Close()
	}
}

func (c *client) writeLoop(log *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.conn.Close()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Error("failed to write snapshot", "err", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				log.Error("failed to send ping", "err", err)
				return
			}
		}
	}
}
