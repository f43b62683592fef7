package analysis

import (
	"sort"

	"satoshi-drop/src/analysis/core"
	"satoshi-drop/src/models"
)

// -----------------------------------------------------------------------------

// Resample groups points into windows aligned on multiples of windowSeconds
// and returns one candle per non-empty window, oldest first.
func Resample(points []models.MPricePoint, windowSeconds int64) []models.MPriceCandle {
	if len(points) == 0 || windowSeconds <= 0 {
		return []models.MPriceCandle{}
	}

	sorted := make([]models.MPricePoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	var candles []models.MPriceCandle
	var bucket []float64
	bucketStart := alignDown(sorted[0].Timestamp, windowSeconds)

	flush := func() {
		if len(bucket) == 0 {
			return
		}
		ohlc := core.ComputeOHLC(bucket)
		candles = append(candles, models.MPriceCandle{
			Start: bucketStart,
			End:   bucketStart + windowSeconds,
			Open:  ohlc.Open,
			High:  ohlc.High,
			Low:   ohlc.Low,
			Close: ohlc.Close,
			Count: len(bucket),
		})
		bucket = bucket[:0]
	}

	for _, p := range sorted {
		start := alignDown(p.Timestamp, windowSeconds)
		if start != bucketStart {
			flush()
			bucketStart = start
		}
		bucket = append(bucket, p.BtcPriceUsd)
	}
	flush()

	return candles
}

// -----------------------------------------------------------------------------

func alignDown(ts, window int64) int64 {
	r := ts % window
	if r < 0 {
		r += window
	}
	return ts - r
}
