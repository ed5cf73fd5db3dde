package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"qrdrop/internal/modules/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024 // control messages only, uploads go over HTTP
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // Allow all origins (configure in prod)
}

// Event is a real-time event pushed to clients joined to a session.
type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Payload   interface{} `json:"payload,omitempty"`
}

const EventFileUploaded = "file-uploaded"

// NewFileUploadedEvent carries the records of one accepted upload batch.
func NewFileUploadedEvent(sessionID string, records []session.FileRecord) *Event {
	return &Event{
		Type:      EventFileUploaded,
		SessionID: sessionID,
		Payload:   records,
	}
}

// connection represents a single WebSocket client
type connection struct {
	conn     *websocket.Conn
	send     chan []byte
	sessions map[string]bool // joined session IDs
}

// Hub manages all active WebSocket connections and their session membership.
// Joining is permissive: a client may join any session id, existing or not,
// and simply receives nothing until events are published for it. Membership
// is released when the connection drops; there is no explicit leave on the
// happy path.
type Hub struct {
	mu          sync.RWMutex
	connections map[*connection]bool
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[*connection]bool),
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = true
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.connections[c] {
		delete(h.connections, c)
		close(c.send)
	}
}

// Publish sends an event to every client currently joined to the session.
// Delivery is best-effort at-most-once: late joiners get no replay and slow
// clients are skipped rather than blocking the publisher.
func (h *Hub) Publish(sessionID string, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.connections {
		if c.sessions[sessionID] {
			select {
			case c.send <- data:
			default:
				// Client too slow — skip
			}
		}
	}
}

// Joined reports how many connections are currently members of a session.
func (h *Hub) Joined(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.connections {
		if c.sessions[sessionID] {
			n++
		}
	}
	return n
}

// ServeWS registers a new connection and starts read/write loops
func (h *Hub) ServeWS(conn *websocket.Conn) {
	c := &connection{
		conn:     conn,
		send:     make(chan []byte, 256),
		sessions: make(map[string]bool),
	}

	h.register(c)

	go h.writePump(c)
	h.readPump(c) // blocks until disconnect
}

func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var req struct {
			Type      string `json:"type"`
			SessionID string `json:"session_id"`
		}
		if err := json.Unmarshal(msg, &req); err != nil {
			continue
		}
		if req.SessionID == "" {
			continue
		}

		switch req.Type {
		case "join-session":
			h.mu.Lock()
			c.sessions[req.SessionID] = true
			h.mu.Unlock()
		case "leave-session":
			h.mu.Lock()
			delete(c.sessions, req.SessionID)
			h.mu.Unlock()
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
