package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tecu23/match-server/internal/color"
	"github.com/tecu23/match-server/pkg/events"
	"github.com/tecu23/match-server/pkg/messages"
)

// Rating reconciliation constants. A decisive result moves a fixed delta
// from loser to winner; draws never adjust ratings.
const (
	ratingDelta = 25
	ratingFloor = 100
)

// resolveRatings applies the fixed-delta adjustment for a decisive result
// and persists both ratings. Store failures are logged and swallowed; a
// rating inconsistency never blocks game-over delivery and is not retried.
//
// white and black are the participants as seated at the terminal
// transition; forfeits pass the already-vacated slot's snapshot.
func (r *Registry) resolveRatings(s *Session, white, black *participant, winner color.Color) {
	if white == nil || black == nil {
		return
	}

	winnerP, loserP := white, black
	if winner == color.Black {
		winnerP, loserP = black, white
	}

	newWinner := winnerP.rating + ratingDelta
	newLoser := loserP.rating - ratingDelta
	if newLoser < ratingFloor {
		newLoser = ratingFloor
	}

	if err := r.ratings.SetRating(winnerP.username, newWinner); err != nil {
		r.logger.Error("rating write failed",
			zap.String("game_id", s.ID),
			zap.String("username", winnerP.username),
			zap.Error(fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)),
		)
	}
	if err := r.ratings.SetRating(loserP.username, newLoser); err != nil {
		r.logger.Error("rating write failed",
			zap.String("game_id", s.ID),
			zap.String("username", loserP.username),
			zap.Error(fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)),
		)
	}

	s.mu.Lock()
	winnerP.rating = newWinner
	loserP.rating = newLoser
	s.mu.Unlock()

	payload := messages.RatingUpdatedPayload{
		GameID:        s.ID,
		WhiteUsername: white.username,
		BlackUsername: black.username,
		WhiteRating:   white.rating,
		BlackRating:   black.rating,
	}

	r.broadcast(s.ID, messages.OutboundMessage{
		Event:   messages.EventRatingUpdated,
		Payload: payload,
	})

	r.publisher.Publish(events.Event{
		Type:    events.EventRatingsUpdated,
		GameID:  s.ID,
		Payload: payload,
	})

	r.logger.Info("ratings reconciled",
		zap.String("game_id", s.ID),
		zap.String("winner", winnerP.username),
		zap.Int("winner_rating", newWinner),
		zap.String("loser", loserP.username),
		zap.Int("loser_rating", newLoser),
	)
}
