package main

import (
	"github.com/jonboulle/clockwork"

	"satoshi-drop/src/data_source/coinbase"
	"satoshi-drop/src/interfaces"
	"satoshi-drop/src/logger"
	"satoshi-drop/src/metrics"
	"satoshi-drop/src/models"
	"satoshi-drop/src/network"
	"satoshi-drop/src/state"
	"satoshi-drop/src/storage"
)

// -----------------------------------------------------------------------------

// setupDatabase opens the newsletter store selected in config.
func setupDatabase(config *models.MConfig, appLogger *logger.Logger) (interfaces.IDatabase, error) {
	db, err := storage.NewDatabase(config, logger.NewLogger(config, "Storage"))
	if err != nil || db == nil {
		return nil, err
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, err
	}
	appLogger.Info("Newsletter storage ready (%s)", config.Storage.DBType)
	return db, nil
}

// -----------------------------------------------------------------------------

// setupNetwork initializes the network manager
func setupNetwork(config *models.MConfig) interfaces.INetworkManager {
	networkLogger := logger.NewLogger(config, "NetworkManager")
	return network.NewAsyncNetworkManager(config, networkLogger)
}

// -----------------------------------------------------------------------------

func setupPriceSource(config *models.MConfig, networkManager interfaces.INetworkManager, clock clockwork.Clock) interfaces.IPriceSource {
	return coinbase.NewCoinbaseSource(config.DataSource, networkManager, clock, logger.NewLogger(config, "CoinbaseSource"))
}

// -----------------------------------------------------------------------------

// metricsListener mirrors every store update into the gauges.
func metricsListener(m *metrics.Metrics) state.Listener {
	return func(update models.MDisplayData) {
		m.SetCountdown(update.Countdown)
		m.SetPrice(update.Price)
	}
}
