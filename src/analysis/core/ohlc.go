package core

// -----------------------------------------------------------------------------

// OHLC is the open/high/low/close summary of a price series.
type OHLC struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// ComputeOHLC summarises prices in the given order.
func ComputeOHLC(prices []float64) OHLC {
	if len(prices) == 0 {
		return OHLC{}
	}
	low, high := CalculateMinMax(prices)
	return OHLC{
		Open:  prices[0],
		High:  high,
		Low:   low,
		Close: prices[len(prices)-1],
	}
}
