package server

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tecu23/match-server/pkg/messages"
)

// Connection wraps one client websocket with its send queue.
type Connection struct {
	ID      uuid.UUID
	ws      *websocket.Conn // The underlying Websocket connection
	hub     *Hub
	send    chan []byte // Buffered channel of outbound messages.
	writeMu sync.Mutex  // Mutex to protect concurrent writes to ws.

	closed    chan struct{}
	closeOnce sync.Once

	logger *zap.Logger
}

// NewConnection creates a connection with a fresh identifier.
func NewConnection(ws *websocket.Conn, hub *Hub, logger *zap.Logger) *Connection {
	return &Connection{
		ID:     uuid.New(),
		ws:     ws,
		hub:    hub,
		send:   make(chan []byte, 256), // buffered for outgoing messages
		closed: make(chan struct{}),
		logger: logger,
	}
}

// Close stops the write pump and rejects further sends. Safe to call
// repeatedly; a broadcast racing an unregister must never panic.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}

// ReadPump handles inbound messages from the client. When the socket
// closes, for any reason, the hub unregisters the connection and the
// registry applies its disconnect handling.
func (c *Connection) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.ws.Close()
	}()

	for {
		msgType, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("read error", zap.Error(err))
			}
			break
		}

		// We only handle text
		if msgType != websocket.TextMessage {
			continue
		}

		var inbound messages.InboundMessage
		if err := json.Unmarshal(msg, &inbound); err != nil {
			c.logger.Error("failed to parse inbound JSON", zap.Error(err))
			continue
		}

		c.hub.inbound <- InboundHubMessage{
			Conn:    c,
			Message: inbound,
		}
	}
}

// WritePump handles outbound messages to the client
func (c *Connection) WritePump() {
	defer func() {
		c.ws.Close()
	}()

	for {
		select {
		case <-c.closed:
			return
		case message := <-c.send:
			c.writeMu.Lock()
			err := c.ws.WriteMessage(websocket.TextMessage, message)
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Error("write error", zap.Error(err))
				return
			}
		}
	}
}

// SendJSON is a helper for sending JSON to this connection
func (c *Connection) SendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("error marshaling JSON", zap.Error(err))
		return
	}

	select {
	case <-c.closed:
	case c.send <- data:
	default:
		c.logger.Warn("send buffer full, dropping message",
			zap.String("connection_id", c.ID.String()))
	}
}
