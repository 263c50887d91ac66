// Package main is the entry point for the Wordle archive service.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gnonk323/wordle-archive/internal/config"
	"github.com/gnonk323/wordle-archive/internal/nyt"
	"github.com/gnonk323/wordle-archive/internal/pkg/db"
	"github.com/gnonk323/wordle-archive/internal/pkg/lock"
	"github.com/gnonk323/wordle-archive/internal/repository"
	"github.com/gnonk323/wordle-archive/internal/server"
	"github.com/gnonk323/wordle-archive/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	// The archive owner is identified by the regi_id inside the session cookie
	userID, err := nyt.UserIDFromCookie(cfg.NYT.Cookie)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to extract user id from NYT cookie")
	}
	log.Info().Str("user_id", userID).Msg("Archive owner resolved")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repository
	gameRepo := repository.NewGameRepository(dbPool.Pool)

	// Initialize NYT clients; the state client carries the owner's session
	httpClient := &http.Client{}
	puzzleClient := nyt.NewPuzzleClient(httpClient, cfg.NYT.PuzzleBaseURL, cfg.NYT.RequestTimeout, cfg.NYT.LookupRate)
	stateClient := nyt.NewStateClient(httpClient, cfg.NYT.StateBaseURL, cfg.NYT.Cookie, cfg.NYT.RequestTimeout)

	// Resolve the archive owner's reference timezone
	loc, err := time.LoadLocation(cfg.Sync.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Sync.Timezone).Msg("Failed to load sync timezone")
	}
	startDate, err := time.ParseInLocation("2006-01-02", cfg.Sync.StartDate, loc)
	if err != nil {
		log.Fatal().Err(err).Str("start_date", cfg.Sync.StartDate).Msg("Failed to parse sync start date")
	}

	// Initialize sync services
	resolver := service.NewRangeResolver(loc, cfg.Sync.LookbackDays, startDate)
	userLock := lock.NewUserLock()
	syncService := service.NewSyncService(
		puzzleClient,
		stateClient,
		gameRepo,
		resolver,
		userLock,
		userID,
		cfg.Sync.BatchSize,
		cfg.Sync.LookupConcurrency,
	)
	archiveService := service.NewArchiveService(gameRepo, userID)

	// Initialize HTTP server
	srv := server.New(cfg.Server.Port, cfg.Server.AllowedOrigins, syncService, archiveService, dbPool)

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	log.Info().Msg("Server stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create games table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS games (
			id BIGSERIAL PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			print_date DATE NOT NULL,
			puzzle_id BIGINT NOT NULL,
			solution VARCHAR(16) NOT NULL DEFAULT '',
			game_state JSONB NOT NULL,
			fetched_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, print_date)
		);
		CREATE INDEX IF NOT EXISTS idx_games_print_date ON games(print_date);
		CREATE INDEX IF NOT EXISTS idx_games_user_fetched ON games(user_id, fetched_at DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: games table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
