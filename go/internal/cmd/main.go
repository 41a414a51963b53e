package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	config, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	zerolog.SetGlobalLevel(config.LogLevel)

	tuning, err := loadTuning(config.TuningFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load tuning")
	}

	services, err := setupServices(config, tuning, clockwork.NewRealClock())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup services")
	}
	service := services.Feed
	server := setupServer(config, service)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serviceDone := make(chan struct{})
	go func() {
		defer close(serviceDone)
		if err := service.Start(ctx); err != nil {
			log.Error().Err(err).Msg("feed service failed")
		}
	}()

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Uint64("seed", config.Seed).
			Bool("nats_mirror", config.NATSEnabled).
			Msg("server running")
		log.Info().
			Int("min_users", tuning.Users.Bounds.Min).
			Int("max_users", tuning.Users.Bounds.Max).
			Int("max_earnings_entries", tuning.Earnings.MaxEntries).
			Msg("simulating random online users and earnings chart updates")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Stop accepting new connections; hijacked WebSockets are closed by the service
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	cancel()

	select {
	case <-serviceDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("feed service did not stop in time")
	}

	log.Info().Msg("shutdown complete")
}
