package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SatsPerBitcoin is the number of satoshis in one bitcoin.
const SatsPerBitcoin = 100_000_000

// MPriceSnapshot is the result of one successful spot price fetch.
type MPriceSnapshot struct {
	BtcPriceUsd decimal.Decimal `json:"btc_price_usd"`
	FetchedAt   time.Time       `json:"fetched_at"`
	Sequence    uint64          `json:"sequence"`
}

// -----------------------------------------------------------------------------

// MPriceState is the published price pair.
// The zero value means "not yet loaded".
type MPriceState struct {
	BtcPriceUsd     float64 `json:"btc_price_usd"`
	SatUnitPriceUsd float64 `json:"sat_unit_price_usd"`
	Loaded          bool    `json:"loaded"`
	UpdatedAt       int64   `json:"updated_at"`
	Sequence        uint64  `json:"sequence"`
}

// -----------------------------------------------------------------------------

// MPriceStats summarises the in-memory price history window.
type MPriceStats struct {
	Count         int     `json:"count"`
	Mean          float64 `json:"mean"`
	Std           float64 `json:"std"`
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	ChangePercent float64 `json:"change_percent"`
	ZScore        float64 `json:"z_score"`
	FirstAt       int64   `json:"first_at"`
	LastAt        int64   `json:"last_at"`
}

// -----------------------------------------------------------------------------

// MPriceCandle aggregates the BTC price over one aligned time window.
type MPriceCandle struct {
	Start int64   `json:"start"`
	End   int64   `json:"end"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
	Count int     `json:"count"`
}
