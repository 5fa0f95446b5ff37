package messages

import "github.com/tecu23/match-server/internal/color"

// Outbound event names sent to clients.
const (
	EventConnected         = "CONNECTED"
	EventGameJoined        = "GAME_JOINED"
	EventGameStarted       = "GAME_STARTED"
	EventMoveMade          = "MOVE_MADE"
	EventJoinRejected      = "JOIN_REJECTED"
	EventMoveRejected      = "MOVE_REJECTED"
	EventClockUpdate       = "CLOCK_UPDATE"
	EventGameOver          = "GAME_OVER"
	EventOpponentForfeited = "OPPONENT_FORFEITED"
	EventRatingUpdated     = "RATING_UPDATED"
	EventError             = "ERROR"
)

// OutboundMessage is how we wrap responses before sending
// them to the client
type OutboundMessage struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

type ConnectedPayload struct {
	ConnectionID string `json:"connection_id"`
}

// GameStatePayload is the full per-session state surfaced to clients. It is
// embedded in most outbound payloads so clients never render stale state.
type GameStatePayload struct {
	BoardFEN    string      `json:"board_fen"`
	CurrentTurn color.Color `json:"current_turn"`

	IsCheck     bool `json:"is_check"`
	IsCheckmate bool `json:"is_checkmate"`
	IsDraw      bool `json:"is_draw"`
	IsGameOver  bool `json:"is_game_over"`

	WhiteJoined bool `json:"white_joined"`
	BlackJoined bool `json:"black_joined"`

	WhiteTime      int64 `json:"white_time"`
	BlackTime      int64 `json:"black_time"`
	WhiteIncrement int64 `json:"white_increment"`
	BlackIncrement int64 `json:"black_increment"`

	WhiteUsername string `json:"white_username"`
	BlackUsername string `json:"black_username"`
	WhiteRating   int    `json:"white_rating"`
	BlackRating   int    `json:"black_rating"`
}

// GameJoinedPayload represents the payload after successfully joining a match
type GameJoinedPayload struct {
	GameID string           `json:"game_id"`
	Color  color.Color      `json:"color"`
	State  GameStatePayload `json:"state"`
}

// GameStartedPayload is broadcast when the second participant joins
type GameStartedPayload struct {
	GameID string           `json:"game_id"`
	State  GameStatePayload `json:"state"`
}

// MoveMadePayload is broadcast after a legal move is applied
type MoveMadePayload struct {
	GameID string           `json:"game_id"`
	Move   string           `json:"move"`
	State  GameStatePayload `json:"state"`
}

// RejectedPayload carries the reason a join or move request was refused
type RejectedPayload struct {
	GameID  string `json:"game_id"`
	Message string `json:"message"`
}

// ClockUpdatePayload contains the current state of both clocks
type ClockUpdatePayload struct {
	GameID    string `json:"game_id"`
	WhiteTime int64  `json:"white_time"`
	BlackTime int64  `json:"black_time"`
}

// GameOverPayload is broadcast on any terminal transition
type GameOverPayload struct {
	GameID string           `json:"game_id"`
	Reason string           `json:"reason"`
	Winner color.Color      `json:"winner,omitempty"`
	State  GameStatePayload `json:"state"`
}

// OpponentForfeitedPayload is sent to the remaining participant when the
// other one leaves or disconnects mid-game
type OpponentForfeitedPayload struct {
	GameID  string      `json:"game_id"`
	Message string      `json:"message"`
	Winner  color.Color `json:"winner"`
}

// RatingUpdatedPayload is broadcast after ratings are reconciled
type RatingUpdatedPayload struct {
	GameID        string `json:"game_id"`
	WhiteUsername string `json:"white_username"`
	BlackUsername string `json:"black_username"`
	WhiteRating   int    `json:"white_rating"`
	BlackRating   int    `json:"black_rating"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
