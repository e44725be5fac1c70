package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/squadmarket/go/internal/bootstrap"
	"github.com/mcdev12/squadmarket/go/internal/gateway"
	"github.com/mcdev12/squadmarket/go/internal/team"
	"github.com/mcdev12/squadmarket/go/internal/transfer"
	"github.com/mcdev12/squadmarket/go/internal/users"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Users     *users.Service
	Teams     *team.Service
	Transfers *transfer.Service
	WS        *gateway.WebSocketHandler

	manager *gateway.ConnectionManager
	relay   *gateway.Relay
	worker  *bootstrap.Orchestrator
	nc      *nats.Conn
}

// setupServices wires the dependency chain:
// repository layer -> app layer -> service layer.
func setupServices(cfg *Config, pool *pgxpool.Pool) (*Services, error) {
	streamCfg := bootstrap.DefaultStreamConfig()
	streamCfg.URL = cfg.NATS.URL

	nc, js, err := bootstrap.Connect(streamCfg)
	if err != nil {
		return nil, err
	}

	// Team
	usersRepo := users.NewRepository(pool)
	teamRepo := team.NewRepository(pool)
	teamApp := team.NewApp(teamRepo, usersRepo, team.NewGenerator())
	teamService := team.NewService(teamApp)

	// Users + bootstrap producer
	jobRepo := bootstrap.NewRepository(pool)
	producer, err := bootstrap.NewProducer(js, jobRepo, streamCfg)
	if err != nil {
		nc.Close()
		return nil, err
	}
	userApp := users.NewApp(usersRepo, producer)
	userService := users.NewService(userApp)

	// Transfers
	transferRepo := transfer.NewRepository(pool)
	transferApp := transfer.NewApp(transferRepo, teamApp, clockwork.NewRealClock())
	transferService := transfer.NewService(transferApp, teamApp)

	// Gateway
	manager := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	wsHandler := gateway.NewWebSocketHandler(manager)
	relay := gateway.NewRelay(nc, manager)

	s := &Services{
		Users:     userService,
		Teams:     teamService,
		Transfers: transferService,
		WS:        wsHandler,
		manager:   manager,
		relay:     relay,
		nc:        nc,
	}

	if cfg.Bootstrap.RunWorker {
		notifier := bootstrap.NewNATSNotifier(nc)
		worker, err := bootstrap.NewOrchestrator(js, teamApp, jobRepo, notifier)
		if err != nil {
			nc.Close()
			return nil, err
		}
		s.worker = worker
	}

	return s, nil
}

// Start launches the background components.
func (s *Services) Start(ctx context.Context) {
	go s.manager.Start(ctx)

	if err := s.relay.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start notification relay")
	}

	if s.worker != nil {
		go func() {
			log.Info().Msg("starting embedded bootstrap worker")
			if err := s.worker.Run(ctx); err != nil {
				log.Error().Err(err).Msg("bootstrap worker failed")
			}
		}()
	}
}

func (s *Services) Close() {
	if err := s.relay.Stop(); err != nil {
		log.Warn().Err(err).Msg("failed to stop notification relay")
	}
	s.nc.Close()
}
