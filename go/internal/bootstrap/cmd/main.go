package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mcdev12/squadmarket/go/internal/bootstrap"
	"github.com/mcdev12/squadmarket/go/internal/dbconfig"
	"github.com/mcdev12/squadmarket/go/internal/team"
	"github.com/mcdev12/squadmarket/go/internal/users"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	streamCfg := bootstrap.DefaultStreamConfig()
	if url := os.Getenv("NATS_URL"); url != "" {
		streamCfg.URL = url
	} else {
		streamCfg.URL = nats.DefaultURL
	}

	dbCfg := dbconfig.NewConfigFromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := dbCfg.Connect(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	log.Info().
		Str("database", dbCfg.Database).
		Str("nats_url", streamCfg.URL).
		Msg("starting bootstrap worker")

	nc, js, err := bootstrap.Connect(streamCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to NATS")
	}
	defer nc.Close()

	usersRepo := users.NewRepository(pool)
	teamRepo := team.NewRepository(pool)
	teamApp := team.NewApp(teamRepo, usersRepo, team.NewGenerator())

	jobRepo := bootstrap.NewRepository(pool)
	notifier := bootstrap.NewNATSNotifier(nc)

	orch, err := bootstrap.NewOrchestrator(js, teamApp, jobRepo, notifier)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create orchestrator")
	}

	go func() {
		if err := orch.Run(ctx); err != nil {
			log.Error().Err(err).Msg("bootstrap worker failed")
		}
	}()

	// Add health check endpoint
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:         ":8082",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health check server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health check server shutdown failed")
	}

	cancel()

	// Give in-flight jobs time to finish or nak
	time.Sleep(2 * time.Second)

	log.Info().Msg("bootstrap worker shutdown complete")
}
