package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	username TEXT PRIMARY KEY,
	elo_rating INTEGER NOT NULL DEFAULT 1200
);
`

// SQLiteStore is a RatingStore backed by a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the rating database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is required")
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open rating db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping rating db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create users table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetRating retrieves a rating by username
func (s *SQLiteStore) GetRating(username string) (int, error) {
	var rating int
	err := s.db.QueryRow(
		`SELECT elo_rating FROM users WHERE username = ?`,
		strings.ToLower(username),
	).Scan(&rating)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get rating: %w", err)
	}

	return rating, nil
}

// SetRating saves a rating, inserting the user row if it does not exist
func (s *SQLiteStore) SetRating(username string, rating int) error {
	_, err := s.db.Exec(
		`INSERT INTO users (username, elo_rating) VALUES (?, ?)
		 ON CONFLICT(username) DO UPDATE SET elo_rating = excluded.elo_rating`,
		strings.ToLower(username), rating,
	)
	if err != nil {
		return fmt.Errorf("set rating: %w", err)
	}

	return nil
}

// Leaderboard returns all known players ordered by rating descending
func (s *SQLiteStore) Leaderboard() ([]LeaderboardEntry, error) {
	rows, err := s.db.Query(
		`SELECT username, elo_rating FROM users ORDER BY elo_rating DESC, username ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Rating); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
