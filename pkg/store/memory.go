package store

import (
	"sort"
	"sync"
)

// MemoryStore is an in-memory RatingStore, used when no database path is
// configured and as a test double.
type MemoryStore struct {
	ratings map[string]int
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory rating store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ratings: make(map[string]int),
	}
}

// GetRating retrieves a rating by username
func (s *MemoryStore) GetRating(username string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rating, ok := s.ratings[username]
	if !ok {
		return 0, ErrNotFound
	}

	return rating, nil
}

// SetRating saves a rating to the store
func (s *MemoryStore) SetRating(username string, rating int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ratings[username] = rating
	return nil
}

// Leaderboard returns all known players ordered by rating descending
func (s *MemoryStore) Leaderboard() ([]LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]LeaderboardEntry, 0, len(s.ratings))
	for username, rating := range s.ratings {
		entries = append(entries, LeaderboardEntry{Username: username, Rating: rating})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Rating != entries[j].Rating {
			return entries[i].Rating > entries[j].Rating
		}
		return entries[i].Username < entries[j].Username
	})

	return entries, nil
}
