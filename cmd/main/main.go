package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"satoshi-drop/src/config"
	"satoshi-drop/src/countdown"
	datasource "satoshi-drop/src/data_source"
	"satoshi-drop/src/helpers"
	"satoshi-drop/src/logger"
	"satoshi-drop/src/metrics"
	"satoshi-drop/src/state"
)

const shutdownTimeout = 10 * time.Second

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// 1. Load config from YAML file, .env and SATOSHI_* variables
	config, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.NewLogger(config.MConfig, config.Name)
	helpers.ApplyMemoryLimit(os.LookupEnv, appLogger)
	clock := clockwork.NewRealClock()
	appMetrics := metrics.New()

	// 2. Shared display state
	store := state.NewStore(config.CountdownSeed(), config.DataSource.HistorySize, clock)
	store.Subscribe(metricsListener(appMetrics))

	// 3. Newsletter storage
	db, err := setupDatabase(config.MConfig, appLogger)
	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
		return
	}
	if db != nil {
		defer db.Close()
	}

	// 4. Price feed
	networkManager := setupNetwork(config.MConfig)
	source := setupPriceSource(config.MConfig, networkManager, clock)
	poller := datasource.NewPoller(source, store, datasource.PollerOptions{
		Interval: config.UpdateInterval(),
		Clock:    clock,
		Metrics:  appMetrics,
		Logger:   logger.NewLogger(config.MConfig, "PricePoller"),
	})

	// 5. Countdown
	target, _ := config.CountdownTarget()
	engine := countdown.NewEngine(countdown.Options{
		Mode:   config.Countdown.Mode,
		Seed:   config.CountdownSeed(),
		Target: target,
		Clock:  clock,
		Sink:   store.SetCountdown,
		Logger: logger.NewLogger(config.MConfig, "Countdown"),
	})

	// 6. Outer surfaces
	srvs := startServers(config, store, db, poller, appMetrics, appLogger)

	// 7. Run until SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		engine.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		poller.Run(ctx)
	}()

	appLogger.Info("%s running (countdown: %s, poll every %s)", config.Name, config.Countdown.Mode, config.UpdateInterval())
	<-ctx.Done()

	appLogger.Info("Shutting down...")
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	srvs.stop(shutdownCtx)

	appLogger.Info("Bye")
}
