// Package main is the entry point of the application
package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tecu23/match-server/internal/auth"
	"github.com/tecu23/match-server/pkg/config"
	"github.com/tecu23/match-server/pkg/events"
	"github.com/tecu23/match-server/pkg/game"
	"github.com/tecu23/match-server/pkg/rules"
	"github.com/tecu23/match-server/pkg/server"
	"github.com/tecu23/match-server/pkg/store"
)

// newUpgrader builds the websocket upgrader, restricting the handshake to
// the configured origin when one is set.
func newUpgrader(allowedOrigin string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,

		CheckOrigin: func(r *http.Request) bool {
			return allowedOrigin == "" || allowedOrigin == r.Header.Get("Origin")
		},
	}
}

// application encapsulates global dependencies
type application struct {
	Auth      *auth.APIKeyAuth
	Logger    *zap.Logger
	Config    *config.Config
	Publisher *events.Publisher
	Registry  *game.Registry
	Ratings   store.RatingStore
	Hub       *server.Hub
	Server    *http.Server
	Upgrader  websocket.Upgrader

	StartTime time.Time
}

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	port := flag.String("port", "8080", "server port")
	flag.Parse()

	cfg := &config.Config{
		Debug: *debug,
		Port:  *port,
	}

	// Initialize logger
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file loaded", zap.Error(err))
	}
	cfg.Load()

	// Initialize event publisher with a logging subscriber
	publisher := events.NewPublisher()
	publisher.SubscribeAll(func(event events.Event) {
		logger.Debug("event",
			zap.String("type", string(event.Type)),
			zap.String("game_id", event.GameID),
		)
	})

	// Initialize rating store
	var ratings store.RatingStore
	if cfg.DatabasePath != "" {
		sqliteStore, err := store.OpenSQLite(cfg.DatabasePath)
		if err != nil {
			logger.Fatal("open rating store error", zap.Error(err))
		}
		defer sqliteStore.Close()
		ratings = sqliteStore
	} else {
		logger.Warn("DATABASE_PATH not set, ratings are in-memory only")
		ratings = store.NewMemoryStore()
	}

	// Initialize the session registry and its transport hub
	registry := game.NewRegistry(rules.NewBoard, ratings, clockwork.NewRealClock(), publisher, logger)
	hub := server.NewHub(registry, logger)
	registry.SetTransport(hub)

	app := &application{
		Auth:      auth.NewAPIKeyAuth(cfg.APIKeys),
		Logger:    logger,
		Config:    cfg,
		Publisher: publisher,
		Registry:  registry,
		Ratings:   ratings,
		Hub:       hub,
		Upgrader:  newUpgrader(cfg.FrontendOrigin),
		StartTime: time.Now(),
	}

	go app.Hub.Run()
	go app.Registry.Run()

	if err := app.serve(); err != nil {
		logger.Fatal("error serving", zap.Error(err))
	}
}

func initLogger(debug bool) *zap.Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	return logger
}

// Shutdown cleans up resources
func (app *application) Shutdown() {
	if app.Hub != nil {
		app.Hub.Shutdown()
	}
	if app.Registry != nil {
		app.Registry.Shutdown()
	}

	app.Logger.Info("All components shut down successfully")
}
