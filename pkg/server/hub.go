package server

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tecu23/match-server/pkg/game"
	"github.com/tecu23/match-server/pkg/messages"
)

// InboundHubMessage are the messages that the hub receives
type InboundHubMessage struct {
	Conn    *Connection             // who sent it
	Message messages.InboundMessage // decoded envelope
}

// Hub keeps track of all active connections and the per-match rooms, and
// routes inbound client events to the registry. It is also the registry's
// outbound transport: unicast by connection ID, broadcast by match room.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*Connection
	rooms       map[string]map[uuid.UUID]*Connection

	register   chan *Connection       // Incoming registration
	unregister chan *Connection       // Incoming unregistration
	inbound    chan InboundHubMessage // Inbound messages the hub routes

	registry *game.Registry
	logger   *zap.Logger

	done chan struct{}
}

// NewHub creates a new hub on top of the registry.
func NewHub(registry *game.Registry, logger *zap.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]*Connection),
		rooms:       make(map[string]map[uuid.UUID]*Connection),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		inbound:     make(chan InboundHubMessage),
		registry:    registry,
		logger:      logger,
		done:        make(chan struct{}),
	}
}

// Run is the main execution of the hub
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return

		case conn := <-h.register:
			h.registerConnection(conn)

		case conn := <-h.unregister:
			h.unregisterConnection(conn)

		case msg := <-h.inbound:
			h.handleInbound(msg)
		}
	}
}

// Register queues a connection for registration.
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister queues a connection for removal.
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Shutdown stops the hub loop and closes every connection.
func (h *Hub) Shutdown() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.connections {
		conn.Close()
		delete(h.connections, id)
	}
	h.rooms = make(map[string]map[uuid.UUID]*Connection)
}

// Emit sends a message to a single connection. Part of game.Transport.
func (h *Hub) Emit(connID uuid.UUID, msg messages.OutboundMessage) {
	h.mu.RLock()
	conn, ok := h.connections[connID]
	h.mu.RUnlock()

	if ok {
		conn.SendJSON(msg)
	}
}

// Broadcast sends a message to every connection in a match room. Part of
// game.Transport.
func (h *Hub) Broadcast(gameID string, msg messages.OutboundMessage) {
	h.mu.RLock()
	room := h.rooms[gameID]
	conns := make([]*Connection, 0, len(room))
	for _, conn := range room {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		conn.SendJSON(msg)
	}
}

func (h *Hub) registerConnection(conn *Connection) {
	h.mu.Lock()
	h.connections[conn.ID] = conn
	total := len(h.connections)
	h.mu.Unlock()

	h.logger.Info("connection registered",
		zap.String("connection_id", conn.ID.String()),
		zap.Int("total", total),
	)

	conn.SendJSON(messages.OutboundMessage{
		Event: messages.EventConnected,
		Payload: messages.ConnectedPayload{
			ConnectionID: conn.ID.String(),
		},
	})
}

func (h *Hub) unregisterConnection(conn *Connection) {
	h.mu.Lock()
	_, ok := h.connections[conn.ID]
	if ok {
		delete(h.connections, conn.ID)
		h.removeFromRoomsLocked(conn)
		conn.Close()
	}
	total := len(h.connections)
	h.mu.Unlock()

	if !ok {
		return
	}

	h.logger.Info("connection unregistered",
		zap.String("connection_id", conn.ID.String()),
		zap.Int("total", total),
	)

	// The registry resolves the session through its connection index and
	// applies the same forfeit logic as an explicit leave.
	h.registry.Disconnect(conn.ID)
}

// handleInbound decodes and routes one client message.
func (h *Hub) handleInbound(msg InboundHubMessage) {
	switch msg.Message.Event {
	case messages.EventJoinGame:
		var payload messages.JoinGamePayload
		if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil || payload.GameID == "" {
			h.sendError(msg.Conn, "Invalid JOIN_GAME payload")
			return
		}
		h.handleJoin(msg.Conn, payload)

	case messages.EventMakeMove:
		var payload messages.MakeMovePayload
		if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil || payload.GameID == "" || payload.Move == "" {
			h.sendError(msg.Conn, "Invalid MAKE_MOVE payload")
			return
		}
		h.handleMove(msg.Conn, payload)

	case messages.EventLeaveGame:
		var payload messages.LeaveGamePayload
		if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil || payload.GameID == "" {
			h.sendError(msg.Conn, "Invalid LEAVE_GAME payload")
			return
		}
		h.leaveRoom(payload.GameID, msg.Conn)
		h.registry.Leave(payload.GameID, msg.Conn.ID)

	default:
		h.sendError(msg.Conn, "Unknown message type")
	}
}

func (h *Hub) handleJoin(conn *Connection, payload messages.JoinGamePayload) {
	result, err := h.registry.Join(payload.GameID, conn.ID, payload.IsCreator, payload.Username)
	if err != nil {
		conn.SendJSON(messages.OutboundMessage{
			Event: messages.EventJoinRejected,
			Payload: messages.RejectedPayload{
				GameID:  payload.GameID,
				Message: err.Error(),
			},
		})
		return
	}

	h.joinRoom(payload.GameID, conn)

	conn.SendJSON(messages.OutboundMessage{
		Event: messages.EventGameJoined,
		Payload: messages.GameJoinedPayload{
			GameID: payload.GameID,
			Color:  result.Color,
			State:  result.State,
		},
	})

	if result.Ready {
		h.Broadcast(payload.GameID, messages.OutboundMessage{
			Event: messages.EventGameStarted,
			Payload: messages.GameStartedPayload{
				GameID: payload.GameID,
				State:  result.State,
			},
		})
	}
}

func (h *Hub) handleMove(conn *Connection, payload messages.MakeMovePayload) {
	// The registry broadcasts MOVE_MADE (and GAME_OVER when the position
	// is terminal); the hub only reports rejections back to the sender.
	if _, err := h.registry.Move(payload.GameID, conn.ID, payload.Move); err != nil {
		conn.SendJSON(messages.OutboundMessage{
			Event: messages.EventMoveRejected,
			Payload: messages.RejectedPayload{
				GameID:  payload.GameID,
				Message: err.Error(),
			},
		})
	}
}

func (h *Hub) joinRoom(gameID string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[gameID]
	if !ok {
		room = make(map[uuid.UUID]*Connection)
		h.rooms[gameID] = room
	}
	room[conn.ID] = conn
}

func (h *Hub) leaveRoom(gameID string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[gameID]; ok {
		delete(room, conn.ID)
		if len(room) == 0 {
			delete(h.rooms, gameID)
		}
	}
}

// removeFromRoomsLocked drops the connection from every room. Callers must
// hold the hub lock.
func (h *Hub) removeFromRoomsLocked(conn *Connection) {
	for gameID, room := range h.rooms {
		delete(room, conn.ID)
		if len(room) == 0 {
			delete(h.rooms, gameID)
		}
	}
}

func (h *Hub) sendError(conn *Connection, msg string) {
	conn.SendJSON(messages.OutboundMessage{
		Event: messages.EventError,
		Payload: messages.ErrorPayload{
			Message: msg,
		},
	})
}
