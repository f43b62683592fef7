package analysis

import (
	"satoshi-drop/src/analysis/core"
	"satoshi-drop/src/models"
)

// -----------------------------------------------------------------------------

// ComputePriceStats summarises a BTC price history given oldest first.
// ChangePercent compares the newest point with the oldest one and ZScore
// places the newest point within the window.
func ComputePriceStats(history []models.MPricePoint) models.MPriceStats {
	if len(history) == 0 {
		return models.MPriceStats{}
	}

	prices := make([]float64, len(history))
	for i, p := range history {
		prices[i] = p.BtcPriceUsd
	}

	first := history[0]
	last := history[len(history)-1]

	mean, std := core.CalculateMeanStd(prices)
	lo, hi := core.CalculateMinMax(prices)

	return models.MPriceStats{
		Count:         len(prices),
		Mean:          mean,
		Std:           std,
		Min:           lo,
		Max:           hi,
		ChangePercent: core.CalculateChangePercent(last.BtcPriceUsd, first.BtcPriceUsd),
		ZScore:        core.CalculateZScore(last.BtcPriceUsd, mean, std),
		FirstAt:       first.Timestamp,
		LastAt:        last.Timestamp,
	}
}
