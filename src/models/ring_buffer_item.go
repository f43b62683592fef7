package models

// RingBuffer indices and constants
const (
	RB_IDX_TIMESTAMP = 0
	RB_IDX_BTC_PRICE = 1
	RB_IDX_SAT_PRICE = 2
	RB_NUM_FEATURES  = 3
)

// MPricePoint is one entry of the in-memory price history.
type MPricePoint struct {
	Timestamp       int64   `json:"timestamp"`
	BtcPriceUsd     float64 `json:"btc_price_usd"`
	SatUnitPriceUsd float64 `json:"sat_unit_price_usd"`
}
