// Package game implements the match core: the session registry, the
// per-session state machine and clock, the skill handicap calculation and
// rating reconciliation.
package game

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/tecu23/match-server/internal/color"
	"github.com/tecu23/match-server/pkg/events"
	"github.com/tecu23/match-server/pkg/messages"
	"github.com/tecu23/match-server/pkg/rules"
	"github.com/tecu23/match-server/pkg/store"
)

const (
	clockTickInterval = 100 * time.Millisecond
	reapInterval      = 5 * time.Minute
	retentionWindow   = time.Hour
)

// Transport delivers outbound messages to clients. The hub implements it;
// tests substitute a capture double.
type Transport interface {
	// Emit sends to a single connection.
	Emit(connID uuid.UUID, msg messages.OutboundMessage)
	// Broadcast sends to every connection in a match's room.
	Broadcast(gameID string, msg messages.OutboundMessage)
}

// JoinResult is the outcome of a successful join.
type JoinResult struct {
	Color color.Color
	State messages.GameStatePayload
	// Ready is true once both slots are filled and the match is underway.
	Ready bool
}

// MoveResult is the outcome of a successfully applied move.
type MoveResult struct {
	Move  string
	State messages.GameStatePayload
}

// Registry owns every active session and the connection index. It routes
// join/move/leave/disconnect requests, triggers handicap and rating logic
// at the right lifecycle points, and reaps idle sessions.
type Registry struct {
	sessions map[string]*Session
	byConn   map[uuid.UUID]string
	mu       sync.RWMutex

	newBoard  rules.Factory
	ratings   store.RatingStore
	transport Transport
	clock     clockwork.Clock
	publisher *events.Publisher
	logger    *zap.Logger

	done     chan struct{}
	stopOnce sync.Once
}

// NewRegistry creates a registry with no sessions. The transport is wired
// afterwards via SetTransport because the hub is constructed on top of the
// registry.
func NewRegistry(
	newBoard rules.Factory,
	ratings store.RatingStore,
	clock clockwork.Clock,
	publisher *events.Publisher,
	logger *zap.Logger,
) *Registry {
	return &Registry{
		sessions:  make(map[string]*Session),
		byConn:    make(map[uuid.UUID]string),
		newBoard:  newBoard,
		ratings:   ratings,
		clock:     clock,
		publisher: publisher,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// SetTransport wires the outbound message sink. Must be called before the
// first join.
func (r *Registry) SetTransport(t Transport) {
	r.transport = t
}

// Run drives the idle-session reaper until Shutdown. Meant to be launched
// as a goroutine.
func (r *Registry) Run() {
	ticker := r.clock.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.Chan():
			r.ReapIdle()
		}
	}
}

// Shutdown stops the reaper and every session's clock task. Safe to call
// more than once.
func (r *Registry) Shutdown() {
	r.stopOnce.Do(func() {
		close(r.done)
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		s.mu.Lock()
		s.stopClockLocked()
		s.mu.Unlock()
	}
}

// Join seats a connection in the given match, creating the session on
// first contact. The second join activates the match: the handicap
// calculation sets both clocks and the clock task starts.
func (r *Registry) Join(gameID string, connID uuid.UUID, isCreator bool, username string) (JoinResult, error) {
	rating := r.lookupRating(username)

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[gameID]
	if !ok {
		board, err := r.newBoard("")
		if err != nil {
			return JoinResult{}, fmt.Errorf("create board: %w", err)
		}

		joiner := &participant{connID: connID, username: username, rating: rating}
		s = newSession(gameID, board, joiner, r.clock.Now())
		r.sessions[gameID] = s
		r.byConn[connID] = gameID

		r.logger.Info("session created",
			zap.String("game_id", gameID),
			zap.String("username", username),
			zap.Bool("is_creator", isCreator),
		)
		r.publisher.Publish(events.Event{Type: events.EventSessionCreated, GameID: gameID})

		return JoinResult{Color: color.White, State: s.State()}, nil
	}

	s.mu.Lock()

	// Idempotent rejoin: a seated participant gets their color back.
	if p, c := s.participantByConn(connID); p != nil {
		result := JoinResult{
			Color: c,
			State: s.snapshotLocked(),
			Ready: s.white != nil && s.black != nil,
		}
		s.mu.Unlock()
		return result, nil
	}

	if s.black != nil {
		s.mu.Unlock()
		return JoinResult{}, ErrSlotFull
	}

	s.black = &participant{connID: connID, username: username, rating: rating}
	r.byConn[connID] = gameID

	params := handicapFor(s.white.rating, s.black.rating)
	s.whiteTime, s.blackTime, s.whiteIncrement, s.blackIncrement =
		params.TimeControl(s.white.rating >= s.black.rating)
	s.status = StatusActive

	result := JoinResult{Color: color.Black, State: s.snapshotLocked(), Ready: true}

	r.logger.Info("session active",
		zap.String("game_id", gameID),
		zap.String("white", s.white.username),
		zap.Int("white_rating", s.white.rating),
		zap.String("black", s.black.username),
		zap.Int("black_rating", s.black.rating),
		zap.Int64("white_time", s.whiteTime),
		zap.Int64("black_time", s.blackTime),
	)
	r.publisher.Publish(events.Event{Type: events.EventSessionStarted, GameID: gameID})

	// startClock takes the session lock itself.
	s.mu.Unlock()
	r.startClock(s)

	return result, nil
}

// handicapFor orders two ratings and computes the handicap parameters.
func handicapFor(whiteRating, blackRating int) HandicapParams {
	if whiteRating >= blackRating {
		return ComputeHandicap(whiteRating, blackRating)
	}
	return ComputeHandicap(blackRating, whiteRating)
}

// Move validates turn order, forwards the move to the rules engine, applies
// the mover's increment and resolves the outcome if the position is now
// terminal. Rejected moves leave session state unchanged.
func (r *Registry) Move(gameID string, connID uuid.UUID, move string) (MoveResult, error) {
	r.mu.RLock()
	s, ok := r.sessions[gameID]
	r.mu.RUnlock()

	if !ok {
		return MoveResult{}, ErrNotFound
	}

	s.mu.Lock()

	if s.status == StatusTerminal {
		s.mu.Unlock()
		return MoveResult{}, ErrIllegalMove
	}

	p, moverColor := s.participantByConn(connID)
	if p == nil || s.board.SideToMove() != moverColor {
		s.mu.Unlock()
		return MoveResult{}, ErrTurnViolation
	}

	if err := s.board.ApplyMove(move); err != nil {
		s.mu.Unlock()
		return MoveResult{}, ErrIllegalMove
	}

	// The mover banks their increment and the tick baseline resets, so the
	// opponent is not charged for time spent delivering this move.
	if moverColor == color.White {
		s.whiteTime += s.whiteIncrement
	} else {
		s.blackTime += s.blackIncrement
	}
	s.lastTickAt = r.clock.Now()

	gameOver := s.board.IsGameOver()
	var reason EndReason
	var winner color.Color
	var white, black *participant

	if gameOver {
		if s.board.IsCheckmate() {
			reason = EndCheckmate
			winner = moverColor
		} else {
			reason = EndDraw
		}
		s.terminateLocked(reason)
		white, black = s.white, s.black
	}

	state := s.snapshotLocked()
	s.mu.Unlock()

	r.broadcast(gameID, messages.OutboundMessage{
		Event: messages.EventMoveMade,
		Payload: messages.MoveMadePayload{
			GameID: gameID,
			Move:   move,
			State:  state,
		},
	})
	r.publisher.Publish(events.Event{Type: events.EventMoveProcessed, GameID: gameID, Payload: move})

	if gameOver {
		r.broadcast(gameID, messages.OutboundMessage{
			Event: messages.EventGameOver,
			Payload: messages.GameOverPayload{
				GameID: gameID,
				Reason: string(reason),
				Winner: winner,
				State:  state,
			},
		})

		// Draws never adjust ratings.
		if reason == EndCheckmate {
			r.resolveRatings(s, white, black, winner)
		}

		r.publisher.Publish(events.Event{Type: events.EventSessionEnded, GameID: gameID, Payload: string(reason)})
	}

	return MoveResult{Move: move, State: state}, nil
}

// Leave vacates the connection's slot in the given match. Leaving an
// active match with the opponent still seated forfeits it.
func (r *Registry) Leave(gameID string, connID uuid.UUID) {
	r.mu.Lock()
	s := r.sessions[gameID]
	out := r.vacateLocked(s, connID)
	r.mu.Unlock()

	r.finishForfeit(out)
}

// Disconnect resolves the connection's session through the connection
// index and applies the same slot-clearing and forfeit logic as Leave.
func (r *Registry) Disconnect(connID uuid.UUID) {
	r.mu.Lock()
	var out vacateOutcome
	if gameID, ok := r.byConn[connID]; ok {
		out = r.vacateLocked(r.sessions[gameID], connID)
	}
	r.mu.Unlock()

	r.finishForfeit(out)
}

// vacateOutcome carries what happened when a participant was removed, so
// notifications and rating updates can run outside the registry lock.
type vacateOutcome struct {
	session    *Session
	forfeit    bool
	winner     color.Color
	winnerConn uuid.UUID
	white      *participant
	black      *participant
	leaver     color.Color
	destroyed  bool
}

// vacateLocked clears the connection's slot, destroys the session if both
// slots are now empty, and reports whether a forfeit must be declared.
// Callers must hold the registry lock.
func (r *Registry) vacateLocked(s *Session, connID uuid.UUID) vacateOutcome {
	if s == nil {
		return vacateOutcome{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, leaverColor := s.participantByConn(connID)
	if p == nil {
		// The connection does not sit in this session. Leave the index
		// alone so a later disconnect still resolves its real session.
		return vacateOutcome{}
	}

	delete(r.byConn, connID)

	out := vacateOutcome{
		session: s,
		white:   s.white,
		black:   s.black,
		leaver:  leaverColor,
	}

	wasActive := s.status == StatusActive

	var opponent *participant
	if leaverColor == color.White {
		opponent = s.black
		s.white = nil
	} else {
		opponent = s.white
		s.black = nil
	}

	if wasActive && opponent != nil {
		s.terminateLocked(EndForfeit)
		out.forfeit = true
		out.winner = leaverColor.Opp()
		out.winnerConn = opponent.connID
	} else {
		// No forfeit to declare, but the clock must not outlive the seat.
		s.stopClockLocked()
	}

	if s.emptyLocked() {
		delete(r.sessions, s.ID)
		out.destroyed = true
	}

	return out
}

// finishForfeit emits the forfeit notification and reconciles ratings for
// a vacate outcome, outside any lock.
func (r *Registry) finishForfeit(out vacateOutcome) {
	if out.session == nil {
		return
	}

	if out.destroyed {
		r.logger.Info("session destroyed", zap.String("game_id", out.session.ID))
		r.publisher.Publish(events.Event{Type: events.EventSessionRemoved, GameID: out.session.ID})
	}

	if !out.forfeit {
		return
	}

	r.logger.Info("session forfeited",
		zap.String("game_id", out.session.ID),
		zap.String("leaver", string(out.leaver)),
		zap.String("winner", string(out.winner)),
	)

	r.emit(out.winnerConn, messages.OutboundMessage{
		Event: messages.EventOpponentForfeited,
		Payload: messages.OpponentForfeitedPayload{
			GameID:  out.session.ID,
			Message: fmt.Sprintf("%s has forfeited the game by leaving.", title(out.leaver)),
			Winner:  out.winner,
		},
	})

	r.resolveRatings(out.session, out.white, out.black, out.winner)

	r.publisher.Publish(events.Event{
		Type:    events.EventSessionEnded,
		GameID:  out.session.ID,
		Payload: string(EndForfeit),
	})
}

// ReapIdle removes AwaitingOpponent sessions older than the retention
// window that have no participants left. Sessions with a seat taken are
// excluded by construction, so the reaper never races an in-progress join.
func (r *Registry) ReapIdle() {
	cutoff := r.clock.Now().Add(-retentionWindow)

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.sessions {
		s.mu.Lock()
		stale := s.status == StatusAwaitingOpponent && s.emptyLocked() && s.createdAt.Before(cutoff)
		if stale {
			s.stopClockLocked()
		}
		s.mu.Unlock()

		if stale {
			delete(r.sessions, id)
			r.logger.Info("reaped idle session", zap.String("game_id", id))
			r.publisher.Publish(events.Event{Type: events.EventSessionRemoved, GameID: id})
		}
	}
}

// SessionCount returns the number of live sessions.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Session returns a live session by match ID.
func (r *Registry) Session(gameID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[gameID]
	return s, ok
}

// lookupRating fetches a player's stored rating, falling back to the
// default on any miss or store failure. Never fatal.
func (r *Registry) lookupRating(username string) int {
	rating, err := r.ratings.GetRating(username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			r.logger.Warn("rating lookup failed, using default",
				zap.String("username", username),
				zap.Error(fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)),
			)
		}
		return store.DefaultRating
	}
	return rating
}

func (r *Registry) emit(connID uuid.UUID, msg messages.OutboundMessage) {
	if r.transport != nil {
		r.transport.Emit(connID, msg)
	}
}

func (r *Registry) broadcast(gameID string, msg messages.OutboundMessage) {
	if r.transport != nil {
		r.transport.Broadcast(gameID, msg)
	}
}

func title(c color.Color) string {
	if c == color.White {
		return "White"
	}
	return "Black"
}
