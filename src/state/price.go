package state

import (
	"math"

	"github.com/shopspring/decimal"

	"satoshi-drop/src/models"
)

// LoadingText is rendered until the first successful fetch.
const LoadingText = "Loading..."

// satDisplayPlaces is the precision of the rendered satoshi price.
const satDisplayPlaces = 8

var satsPerBitcoin = decimal.NewFromInt(models.SatsPerBitcoin)

// -----------------------------------------------------------------------------

// DeriveSatPrice returns the USD price of one satoshi.
func DeriveSatPrice(btcPriceUsd decimal.Decimal) decimal.Decimal {
	// Exact: dividing by 10^8 only shifts the exponent
	return btcPriceUsd.Shift(-8)
}

// -----------------------------------------------------------------------------

// NewPriceState builds the published pair from a fetch result. The sat price
// is derived from the published float so the pair always satisfies
// sat == btc / SatsPerBitcoin exactly.
func NewPriceState(snap models.MPriceSnapshot) models.MPriceState {
	btc := snap.BtcPriceUsd.InexactFloat64()
	return models.MPriceState{
		BtcPriceUsd:     btc,
		SatUnitPriceUsd: btc / models.SatsPerBitcoin,
		Loaded:          true,
		UpdatedAt:       snap.FetchedAt.Unix(),
		Sequence:        snap.Sequence,
	}
}

// -----------------------------------------------------------------------------

// FormatSatPrice renders the satoshi price for display: LoadingText while the
// value is unset, zero or NaN, fixed 8 decimals otherwise.
func FormatSatPrice(p models.MPriceState) string {
	if !p.Loaded || p.SatUnitPriceUsd == 0 || math.IsNaN(p.SatUnitPriceUsd) || math.IsInf(p.SatUnitPriceUsd, 0) {
		return LoadingText
	}
	return decimal.NewFromFloat(p.SatUnitPriceUsd).StringFixed(satDisplayPlaces)
}

// -----------------------------------------------------------------------------

// UsdForSats values an amount of satoshis at the given state.
func UsdForSats(p models.MPriceState, sats int64) (decimal.Decimal, bool) {
	if !p.Loaded || p.SatUnitPriceUsd <= 0 || math.IsNaN(p.SatUnitPriceUsd) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(p.BtcPriceUsd).Mul(decimal.NewFromInt(sats)).Div(satsPerBitcoin), true
}
