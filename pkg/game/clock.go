package game

import (
	"go.uber.org/zap"

	"github.com/tecu23/match-server/internal/color"
	"github.com/tecu23/match-server/pkg/events"
	"github.com/tecu23/match-server/pkg/messages"
)

// startClock starts the recurring clock task for a newly activated session.
// The task deducts wall-clock time from the side to move on every tick and
// detects flag fall. It is stopped exactly once, via stopClockLocked, on the
// session's first transition out of Active or on destruction.
func (r *Registry) startClock(s *Session) {
	s.mu.Lock()
	if s.status != StatusActive || s.stopTick != nil {
		s.mu.Unlock()
		return
	}

	s.lastTickAt = r.clock.Now()
	s.ticker = r.clock.NewTicker(clockTickInterval)
	s.stopTick = make(chan struct{})

	ticker := s.ticker
	stop := s.stopTick
	s.mu.Unlock()

	go func() {
		for {
			select {
			case <-stop:
				return
			case <-ticker.Chan():
				r.tick(s)
			}
		}
	}()
}

// tick runs one clock deduction for a session. Serialized against moves and
// other mutation through the session mutex.
func (r *Registry) tick(s *Session) {
	s.mu.Lock()

	if s.status != StatusActive {
		s.mu.Unlock()
		return
	}

	now := r.clock.Now()
	elapsed := now.Sub(s.lastTickAt).Milliseconds()
	s.lastTickAt = now

	side := s.board.SideToMove()

	var flagged bool
	if side == color.White {
		s.whiteTime -= elapsed
		if s.whiteTime <= 0 {
			s.whiteTime = 0
			flagged = true
		}
	} else {
		s.blackTime -= elapsed
		if s.blackTime <= 0 {
			s.blackTime = 0
			flagged = true
		}
	}

	if !flagged {
		update := messages.ClockUpdatePayload{
			GameID:    s.ID,
			WhiteTime: s.whiteTime,
			BlackTime: s.blackTime,
		}
		s.mu.Unlock()

		r.broadcast(s.ID, messages.OutboundMessage{
			Event:   messages.EventClockUpdate,
			Payload: update,
		})
		return
	}

	// Flag fall: the side to move loses on time.
	s.terminateLocked(EndTimeout)
	winner := side.Opp()
	white, black := s.white, s.black
	state := s.snapshotLocked()
	s.mu.Unlock()

	r.logger.Info("player flagged",
		zap.String("game_id", s.ID),
		zap.String("loser", string(side)),
	)

	r.broadcast(s.ID, messages.OutboundMessage{
		Event: messages.EventGameOver,
		Payload: messages.GameOverPayload{
			GameID: s.ID,
			Reason: string(EndTimeout),
			Winner: winner,
			State:  state,
		},
	})

	r.resolveRatings(s, white, black, winner)

	r.publisher.Publish(events.Event{
		Type:    events.EventSessionEnded,
		GameID:  s.ID,
		Payload: string(EndTimeout),
	})
}
