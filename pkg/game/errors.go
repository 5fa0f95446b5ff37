package game

import "errors"

// Request errors reported back to the offending connection. None of these
// mutate session state and none are fatal to the session.
var (
	ErrNotFound      = errors.New("game not found")
	ErrSlotFull      = errors.New("game is full")
	ErrTurnViolation = errors.New("not your turn")
	ErrIllegalMove   = errors.New("illegal move")

	// ErrUpstreamUnavailable wraps rating store failures. Lookups fall back
	// to the default rating; writes are logged and swallowed.
	ErrUpstreamUnavailable = errors.New("rating store unavailable")
)
