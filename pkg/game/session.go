package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/tecu23/match-server/internal/color"
	"github.com/tecu23/match-server/pkg/messages"
	"github.com/tecu23/match-server/pkg/rules"
)

// Status is the lifecycle state of a session
type Status string

// Session lifecycle states
const (
	StatusAwaitingOpponent Status = "awaiting_opponent"
	StatusActive           Status = "active"
	StatusTerminal         Status = "terminal"
)

// EndReason records why a session reached StatusTerminal
type EndReason string

// Terminal reasons
const (
	EndCheckmate EndReason = "checkmate"
	EndDraw      EndReason = "draw"
	EndTimeout   EndReason = "timeout"
	EndForfeit   EndReason = "forfeit"
)

// participant is one occupied slot. The connection ID is a non-owning
// reference; the registry owns connection lifecycle.
type participant struct {
	connID   uuid.UUID
	username string
	rating   int
}

// Session is the per-match aggregate: participants, clock state, delegated
// board state and lifecycle status. All mutable fields are guarded by mu;
// both request handling and the clock tick go through it.
type Session struct {
	ID string

	board rules.Board

	white *participant
	black *participant

	whiteTime      int64 // remaining, milliseconds
	blackTime      int64
	whiteIncrement int64
	blackIncrement int64

	lastTickAt time.Time
	createdAt  time.Time

	status    Status
	endReason EndReason

	// Clock task handles, non-nil only while the clock is running. Nulled
	// on stop so repeat stops are no-ops.
	ticker   clockwork.Ticker
	stopTick chan struct{}

	mu sync.Mutex
}

// newSession creates a session in AwaitingOpponent with the creator seated
// as white and base clock parameters. The real parameters are set by the
// handicap calculation once the second participant joins.
func newSession(id string, board rules.Board, creator *participant, now time.Time) *Session {
	return &Session{
		ID:    id,
		board: board,
		white: creator,

		whiteTime:      BaseTimeMs,
		blackTime:      BaseTimeMs,
		whiteIncrement: BaseIncrementMs,
		blackIncrement: BaseIncrementMs,

		createdAt: now,
		status:    StatusAwaitingOpponent,
	}
}

// Status returns the session's current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// EndReason returns why the session ended, or "" while it has not.
func (s *Session) EndReason() EndReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endReason
}

// State returns a point-in-time snapshot of the session state as surfaced
// to clients.
func (s *Session) State() messages.GameStatePayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// RemainingTime returns both sides' remaining clock time in milliseconds.
func (s *Session) RemainingTime() (whiteMs, blackMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.whiteTime, s.blackTime
}

// participantByConn returns the seated participant for a connection, or nil.
// Callers must hold mu.
func (s *Session) participantByConn(connID uuid.UUID) (*participant, color.Color) {
	if s.white != nil && s.white.connID == connID {
		return s.white, color.White
	}
	if s.black != nil && s.black.connID == connID {
		return s.black, color.Black
	}
	return nil, ""
}

// empty reports whether both slots are vacant. Callers must hold mu.
func (s *Session) emptyLocked() bool {
	return s.white == nil && s.black == nil
}

// terminate moves the session to Terminal and stops the clock. Further
// calls keep the first reason. Callers must hold mu.
func (s *Session) terminateLocked(reason EndReason) {
	if s.status == StatusTerminal {
		return
	}
	s.status = StatusTerminal
	s.endReason = reason
	s.stopClockLocked()
}

// stopClockLocked cancels the clock task. Safe to call repeatedly; the
// handles are nulled on the first stop. Callers must hold mu.
func (s *Session) stopClockLocked() {
	if s.stopTick == nil {
		return
	}
	close(s.stopTick)
	s.stopTick = nil
	s.ticker.Stop()
	s.ticker = nil
}

// snapshotLocked builds the client-facing state payload. Callers must hold mu.
func (s *Session) snapshotLocked() messages.GameStatePayload {
	state := messages.GameStatePayload{
		BoardFEN:    s.board.Position(),
		CurrentTurn: s.board.SideToMove(),

		IsCheck:     s.board.IsCheck(),
		IsCheckmate: s.board.IsCheckmate(),
		IsDraw:      s.board.IsDraw(),
		IsGameOver:  s.board.IsGameOver() || s.status == StatusTerminal,

		WhiteJoined: s.white != nil,
		BlackJoined: s.black != nil,

		WhiteTime:      s.whiteTime,
		BlackTime:      s.blackTime,
		WhiteIncrement: s.whiteIncrement,
		BlackIncrement: s.blackIncrement,
	}

	if s.white != nil {
		state.WhiteUsername = s.white.username
		state.WhiteRating = s.white.rating
	}
	if s.black != nil {
		state.BlackUsername = s.black.username
		state.BlackRating = s.black.rating
	}

	return state
}
