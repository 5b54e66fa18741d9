package feed

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
)

// connection is one admin browser tab.
type connection struct {
	userID int64
	conn   *websocket.Conn
	send   chan []byte
	// forms limits delivery to these form ids; empty means every form.
	forms map[int64]bool
}

// Hub fans submission events out to connected admins.
type Hub struct {
	mu          sync.RWMutex
	connections map[*connection]struct{}
	log         *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		connections: make(map[*connection]struct{}),
		log:         log,
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = struct{}{}
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[c]; ok {
		delete(h.connections, c)
		close(c.send)
	}
}

// Count reports the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Broadcast delivers event to every connection watching its form. Slow
// clients miss the event rather than block the caller.
func (h *Hub) Broadcast(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("feed event not encoded", zap.String("type", event.Type), zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.connections {
		if event.FormID != 0 && len(c.forms) > 0 && !c.forms[event.FormID] {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.log.Warn("feed client too slow, event dropped", zap.Int64("user_id", c.userID))
		}
	}
}

// ServeWS registers conn and runs its pumps until the client goes away.
func (h *Hub) ServeWS(conn *websocket.Conn, userID int64) {
	c := &connection{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, 64),
		forms:  make(map[int64]bool),
	}
	h.register(c)
	h.log.Info("feed client connected", zap.Int64("user_id", userID))

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
		h.log.Info("feed client disconnected", zap.Int64("user_id", c.userID))
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("feed read failed", zap.Int64("user_id", c.userID), zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.reply(c, &Event{Type: EventError, Code: "INVALID_JSON", Message: "Failed to parse message"})
			continue
		}

		switch msg.Type {
		case "subscribe":
			if msg.FormID <= 0 {
				h.reply(c, &Event{Type: EventError, Code: "INVALID_FORM", Message: "form_id is required"})
				continue
			}
			h.mu.Lock()
			c.forms[msg.FormID] = true
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			delete(c.forms, msg.FormID)
			h.mu.Unlock()
		case "ping":
			h.reply(c, &Event{Type: EventPong})
		default:
			h.reply(c, &Event{Type: EventError, Code: "UNKNOWN_TYPE", Message: "Unknown message type: " + msg.Type})
		}
	}
}

// reply queues an event for one connection only.
func (h *Hub) reply(c *connection, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.connections[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
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
