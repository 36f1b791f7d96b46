package realtime

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	readLimit     = 1024
	readDeadline  = 120 * time.Second
	writeDeadline = 5 * time.Second
)

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Hub keeps one websocket per user. A second connection for the same user
// replaces the first.
type Hub struct {
	upgrader websocket.Upgrader
	logger   Logger

	mu      sync.RWMutex
	clients map[string]*client
	wg      sync.WaitGroup
}

func NewHub(logger Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		logger:   logger,
		clients:  make(map[string]*client),
	}
}

// ServeWS upgrades the request for an already authenticated user.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("ws upgrade failed: %v", err)
		return
	}
	c := &client{conn: conn}

	h.mu.Lock()
	if old, ok := h.clients[userID]; ok {
		_ = old.conn.Close()
	}
	h.clients[userID] = c
	h.mu.Unlock()

	h.wg.Add(1)
	go h.readLoop(userID, c)
}

func (h *Hub) readLoop(userID string, c *client) {
	defer h.wg.Done()
	defer func() {
		c.conn.Close()
		h.mu.Lock()
		if cur, ok := h.clients[userID]; ok && cur == c {
			delete(h.clients, userID)
		}
		h.mu.Unlock()
	}()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	for {
		mt, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(readDeadline))

		if mt == websocket.TextMessage && strings.EqualFold(strings.TrimSpace(string(msg)), "ping") {
			h.write(userID, c, []byte("pong"))
		}
	}
}

func (h *Hub) write(userID string, c *client, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		h.logger.Errorf("ws write to user %s failed: %v", userID, err)
	}
}

// Deliver sends the envelope's event to each addressed user connected here.
func (h *Hub) Deliver(env Envelope) {
	payload, err := json.Marshal(env.Event)
	if err != nil {
		h.logger.Errorf("ws marshal event: %v", err)
		return
	}
	for _, userID := range env.UserIDs {
		h.mu.RLock()
		c := h.clients[userID]
		h.mu.RUnlock()
		if c == nil {
			continue
		}
		h.write(userID, c, payload)
	}
}

// Connected reports whether the user has a live connection on this hub.
func (h *Hub) Connected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// Close drops every connection and waits for the read loops to exit.
func (h *Hub) Close() {
	h.mu.Lock()
	for _, c := range h.clients {
		_ = c.conn.Close()
	}
	h.mu.Unlock()
	h.wg.Wait()
}
