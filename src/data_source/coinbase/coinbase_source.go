package coinbase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"satoshi-drop/src/helpers"
	"satoshi-drop/src/interfaces"
	"satoshi-drop/src/logger"
	"satoshi-drop/src/models"
)

const (
	DefaultURL      = "https://api.coinbase.com/v2/prices/spot"
	DefaultCurrency = "USD"
)

// CoinbaseSource reads the BTC spot price from the public Coinbase API.
type CoinbaseSource struct {
	SourceConfig models.MDataSourceConfig
	Network      interfaces.INetworkManager
	Logger       *logger.Logger
	clock        clockwork.Clock
}

var _ interfaces.IPriceSource = (*CoinbaseSource)(nil)

// -----------------------------------------------------------------------------

func NewCoinbaseSource(cfg models.MDataSourceConfig, netMgr interfaces.INetworkManager, clock clockwork.Clock, log *logger.Logger) *CoinbaseSource {
	if cfg.Name == "" {
		cfg.Name = "coinbase"
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logger.NewLogger(nil, "CoinbaseSource")
	}
	return &CoinbaseSource{
		SourceConfig: cfg,
		Network:      netMgr,
		Logger:       log,
		clock:        clock,
	}
}

// -----------------------------------------------------------------------------

func (s *CoinbaseSource) Name() string {
	return s.SourceConfig.Name
}

// -----------------------------------------------------------------------------

// FetchOnce performs one spot price request. Sequence is left to the caller.
func (s *CoinbaseSource) FetchOnce(ctx context.Context) (models.MPriceSnapshot, error) {
	params := map[string]string{"currency": s.SourceConfig.Currency}

	body, err := s.Network.Get(ctx, s.SourceConfig.URL, params)
	if err != nil {
		if _, ok := helpers.AsFetchError(err); ok {
			return models.MPriceSnapshot{}, err
		}
		return models.MPriceSnapshot{}, helpers.NewFetchNetworkError(err)
	}

	amount, err := ParseSpotResponse(body)
	if err != nil {
		return models.MPriceSnapshot{}, err
	}

	s.Logger.Debug("Spot BTC-%s: %s", s.SourceConfig.Currency, amount.String())

	return models.MPriceSnapshot{
		BtcPriceUsd: amount,
		FetchedAt:   s.clock.Now(),
	}, nil
}

// -----------------------------------------------------------------------------

// SpotResponse mirrors the subset of the Coinbase payload that is read.
type SpotResponse struct {
	Data struct {
		Amount   *string `json:"amount"`
		Base     string  `json:"base"`
		Currency string  `json:"currency"`
	} `json:"data"`
}

// ParseSpotResponse extracts data.amount as an exact decimal.
func ParseSpotResponse(body []byte) (decimal.Decimal, error) {
	var resp SpotResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, helpers.NewFetchParseError("malformed spot response", err)
	}
	if resp.Data.Amount == nil {
		return decimal.Zero, helpers.NewFetchParseError("spot response has no data.amount", nil)
	}

	raw := strings.TrimSpace(*resp.Data.Amount)
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, helpers.NewFetchParseError(fmt.Sprintf("non-numeric amount %q", raw), err)
	}
	if !amount.IsPositive() {
		return decimal.Zero, helpers.NewFetchParseError(fmt.Sprintf("non-positive amount %s", raw), nil)
	}
	return amount, nil
}
