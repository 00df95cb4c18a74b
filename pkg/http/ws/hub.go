package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Hub tracks WebSocket connections and routes broadcasts to the clients
// attached to each lobby. Connections are keyed by the opaque session id.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*Connection // session id -> connection
	lobbies     map[string][]string    // lobby id -> session ids
	logger      zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		lobbies:     make(map[string][]string),
		logger:      logger.With().Str("component", "ws_hub").Logger(),
	}
}

// Register adds a connection for a session, replacing any previous one.
func (h *Hub) Register(sessionID string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, exists := h.connections[sessionID]; exists {
		old.Close()
	}
	h.connections[sessionID] = conn
	h.logger.Debug().Str("session_id", sessionID).Msg("connection registered")
}

// Unregister drops a session's connection and its lobby memberships.
func (h *Hub) Unregister(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, exists := h.connections[sessionID]; exists {
		conn.Close()
		delete(h.connections, sessionID)
	}
	for lobbyID, members := range h.lobbies {
		for i, id := range members {
			if id == sessionID {
				h.lobbies[lobbyID] = append(members[:i], members[i+1:]...)
				break
			}
		}
	}
}

// JoinLobby attaches a session to a lobby's broadcast list.
func (h *Hub) JoinLobby(lobbyID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.lobbies[lobbyID]
	for _, id := range members {
		if id == sessionID {
			return
		}
	}
	h.lobbies[lobbyID] = append(members, sessionID)
}

// BroadcastToLobby sends a message to every member of a lobby. Send errors
// on one member never block the others.
func (h *Hub) BroadcastToLobby(lobbyID string, msg Message) {
	h.mu.RLock()
	members := make([]string, len(h.lobbies[lobbyID]))
	copy(members, h.lobbies[lobbyID])
	h.mu.RUnlock()

	for _, sessionID := range members {
		if err := h.SendTo(sessionID, msg); err != nil {
			h.logger.Debug().Err(err).Str("session_id", sessionID).Msg("broadcast send failed")
		}
	}
}

// SendTo delivers a message to a single session.
func (h *Hub) SendTo(sessionID string, msg Message) error {
	h.mu.RLock()
	conn, exists := h.connections[sessionID]
	h.mu.RUnlock()

	if !exists {
		return ErrConnectionNotFound
	}
	return conn.Send(msg)
}

// Connection wraps a websocket with a buffered send queue so a slow client
// cannot block a broadcast.
type Connection struct {
	conn   *websocket.Conn
	sendCh chan Message
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps an upgraded websocket.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	return &Connection{
		conn:   conn,
		sendCh: make(chan Message, 64),
		logger: logger,
	}
}

// Send queues a message for delivery.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts the connection down, idempotently.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.sendCh)
	c.conn.Close()
}

// WritePump drains the send queue onto the wire.
func (c *Connection) WritePump() {
	defer c.conn.Close()

	for msg := range c.sendCh {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.logger.Debug().Err(err).Msg("ws write error")
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ReadPump feeds incoming messages to the handler until the peer goes away.
func (c *Connection) ReadPump(handler func(Message) error) {
	defer c.conn.Close()

	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug().Err(err).Msg("ws read error")
			}
			return
		}
		if err := handler(msg); err != nil {
			c.logger.Debug().Err(err).Msg("ws handler error")
		}
	}
}

// Hub errors.
var (
	ErrConnectionNotFound = &Error{Code: "connection_not_found", Message: "session has no live connection"}
	ErrConnectionClosed   = &Error{Code: "connection_closed", Message: "connection is closed"}
	ErrSendQueueFull      = &Error{Code: "send_queue_full", Message: "send queue is full"}
)

// Error is a hub-level failure with a stable code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
