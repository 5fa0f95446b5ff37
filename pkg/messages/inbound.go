package messages

import "encoding/json"

// Inbound event names accepted from clients. Anything else is rejected at
// the hub boundary.
const (
	EventJoinGame  = "JOIN_GAME"
	EventMakeMove  = "MAKE_MOVE"
	EventLeaveGame = "LEAVE_GAME"
)

// InboundMessage is the generic wrapper for messages coming from the client.
// The "event" field tells us the action; "payload" is the data we parse further.
type InboundMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// JoinGamePayload represents the payload for joining (or creating) a match
type JoinGamePayload struct {
	GameID    string `json:"game_id"`
	IsCreator bool   `json:"is_creator"`
	Username  string `json:"username"`
}

// MakeMovePayload represents the payload for making a move during a match
type MakeMovePayload struct {
	GameID string `json:"game_id"`
	Move   string `json:"move"`
}

// LeaveGamePayload represents the payload for leaving a match
type LeaveGamePayload struct {
	GameID string `json:"game_id"`
}
