package main

import "net/http"

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", app.handleHealth)
	mux.HandleFunc("/leaderboard", app.handleLeaderboard)
	mux.HandleFunc("/ws", app.authenticate(app.handleWebSocket))

	return mux
}
