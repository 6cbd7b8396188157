package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/romangod6/city-guide/config"
	"github.com/romangod6/city-guide/internal/api"
	"github.com/romangod6/city-guide/internal/auth"
	"github.com/romangod6/city-guide/internal/content"
	"github.com/romangod6/city-guide/internal/storage"
	"github.com/romangod6/city-guide/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Log.Level, cfg.Log.Pretty)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to initialize storage")
	}
	defer store.Close()

	if err := store.Initialize(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize content store")
	}

	sessions, closeSessions, err := openSessions(ctx, cfg, store)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Session.Backend).Msg("Failed to initialize session store")
	}
	defer closeSessions()

	authority := auth.NewAuthority(auth.Credentials{
		Username:     cfg.Admin.Username,
		Password:     cfg.Admin.Password,
		PasswordHash: cfg.Admin.PasswordHash,
	}, sessions, cfg.GetSessionTTL(), logger)

	svc := content.NewService(store, logger)
	handler := api.NewHandler(svc, authority, store, api.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.Secure,
	})
	server := api.NewServer(cfg.Server.Port, cfg.Server.AllowedOrigins, handler, logger)

	// Start the API server
	go func() {
		logger.Info().
			Int("port", cfg.Server.Port).
			Str("driver", cfg.Database.Driver).
			Str("sessions", cfg.Session.Backend).
			Msg("Starting API server")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start API server")
		}
	}()

	// Wait for shutdown
	waitForShutdown(cancel, server, logger)
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return storage.NewPostgresStore(cfg.Database.URL)
	case "mongo":
		return storage.NewMongoStore(ctx, cfg.Database.URL, cfg.Database.Name)
	case "file":
		return storage.NewFileStore(cfg.Database.URL), nil
	case "memory":
		return storage.NewMemoryStore(), nil
	default:
		return storage.NewSQLiteStore(cfg.Database.URL)
	}
}

// openSessions returns the configured session store and its cleanup func.
func openSessions(ctx context.Context, cfg *config.Config, store storage.Store) (auth.SessionStore, func(), error) {
	switch cfg.Session.Backend {
	case "redis":
		sessions := auth.NewRedisSessionStore(cfg.Redis.Addr, cfg.Redis.Password)
		if err := sessions.Ping(ctx); err != nil {
			sessions.Close()
			return nil, nil, err
		}
		return sessions, func() { sessions.Close() }, nil
	case "mongo":
		mongoStore, ok := store.(*storage.MongoStore)
		if !ok {
			return nil, nil, errors.New("mongo sessions require the mongo content store")
		}
		sessions := auth.NewMongoSessionStore(mongoStore.Database())
		if err := sessions.Initialize(ctx); err != nil {
			return nil, nil, err
		}
		return sessions, func() {}, nil
	default:
		return auth.NewMemorySessionStore(), func() {}, nil
	}
}

func waitForShutdown(cancel context.CancelFunc, server *api.Server, logger zerolog.Logger) {
	// Handle system signals for shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	logger.Info().Msg("Shutting down...")
	cancel()

	// Graceful server shutdown
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Error shutting down server")
	}
	logger.Info().Msg("Server shut down gracefully")
}
