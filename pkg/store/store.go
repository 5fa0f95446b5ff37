// Package store defines the rating persistence contract and its
// implementations.
package store

import "errors"

// DefaultRating is the rating assumed for players the store has never seen.
const DefaultRating = 1200

// ErrNotFound is returned when a username has no stored rating.
var ErrNotFound = errors.New("rating not found")

// LeaderboardEntry is one row of the rating leaderboard.
type LeaderboardEntry struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
}

// RatingStore persists per-username skill ratings.
type RatingStore interface {
	// GetRating returns the stored rating for a username, or ErrNotFound.
	GetRating(username string) (int, error)
	// SetRating writes the rating for a username, creating it if absent.
	SetRating(username string, rating int) error
	// Leaderboard returns all known players ordered by rating, best first.
	Leaderboard() ([]LeaderboardEntry, error)
}
