// Package config collects process configuration from flags and environment.
package config

import (
	"os"
	"strings"
)

// Config holds the runtime settings for the server process.
type Config struct {
	Debug bool
	Port  string

	// DatabasePath is the SQLite rating database file. Empty means ratings
	// are kept in memory only.
	DatabasePath string

	// APIKeys gate the websocket endpoint. Empty means the gate is open.
	APIKeys []string

	// FrontendOrigin is the allowed websocket origin. Empty allows any.
	FrontendOrigin string
}

// Load fills in the environment-derived settings. Flag-derived fields are
// set by the caller.
func (c *Config) Load() {
	c.DatabasePath = os.Getenv("DATABASE_PATH")
	c.FrontendOrigin = os.Getenv("FRONTEND_PATH")

	if envAPIKeys := os.Getenv("API_KEYS"); envAPIKeys != "" {
		keys := strings.Split(envAPIKeys, ",")
		for i, key := range keys {
			keys[i] = strings.TrimSpace(key)
		}
		c.APIKeys = keys
	}
}
