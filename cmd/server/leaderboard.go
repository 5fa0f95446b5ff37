package main

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// handleLeaderboard handles the GET /leaderboard endpoint, returning all
// known players ordered by rating.
func (app *application) handleLeaderboard(w http.ResponseWriter, _ *http.Request) {
	entries, err := app.Ratings.Leaderboard()
	if err != nil {
		app.Logger.Error("leaderboard query failed", zap.Error(err))
		http.Error(w, "leaderboard unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		app.Logger.Error("leaderboard encode failed", zap.Error(err))
	}
}
