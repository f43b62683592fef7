package main

import (
	"context"

	"satoshi-drop/src/config"
	"satoshi-drop/src/grpc_health"
	"satoshi-drop/src/interfaces"
	"satoshi-drop/src/logger"
	"satoshi-drop/src/metrics"
	"satoshi-drop/src/publisher"
	"satoshi-drop/src/server"
	"satoshi-drop/src/state"
)

// runningServers holds what has to be stopped on shutdown.
type runningServers struct {
	display   interfaces.IDataExchanger
	health    *grpc_health.HealthServer
	publisher interfaces.IPublisher
	logger    *logger.Logger
}

// -----------------------------------------------------------------------------

// startServers orchestrates the startup of all server components
func startServers(
	config *config.Config,
	store *state.Store,
	db interfaces.IDatabase,
	health server.FetchHealth,
	appMetrics *metrics.Metrics,
	appLogger *logger.Logger,
) *runningServers {
	running := &runningServers{logger: appLogger}

	// 1. Display server (REST + WebSocket)
	display := server.NewDisplayServer(config.MConfig, server.Dependencies{
		Store:    store,
		Database: db,
		Health:   health,
		Metrics:  appMetrics,
	}, logger.NewLogger(config.MConfig, "DisplayServer"))
	store.Subscribe(display.Broadcast)
	running.display = display

	go func() {
		if err := display.Start(); err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
	}()

	// 2. gRPC health server
	if config.GrpcPort > 0 {
		hs := grpc_health.NewHealthServer(config.MConfig, logger.NewLogger(config.MConfig, "HealthServer"))
		store.Subscribe(hs.Listener())
		running.health = hs

		go func() {
			if err := hs.Start(); err != nil {
				appLogger.Critical("%v", err)
			}
		}()
	}

	// 3. NATS publisher
	if config.Publisher.NatsURL != "" {
		pub, err := publisher.NewNatsPublisher(config.Publisher, appMetrics, logger.NewLogger(config.MConfig, "NatsPublisher"))
		if err != nil {
			appLogger.Warning("Publisher disabled: %v", err)
		} else {
			store.Subscribe(pub.Listener())
			running.publisher = pub
		}
	}

	return running
}

// -----------------------------------------------------------------------------

func (r *runningServers) stop(ctx context.Context) {
	if err := r.display.Stop(ctx); err != nil {
		r.logger.Error("Display server shutdown: %v", err)
	}
	if r.health != nil {
		r.health.Stop()
	}
	if r.publisher != nil {
		if err := r.publisher.Close(); err != nil {
			r.logger.Error("Publisher close: %v", err)
		}
	}
}
