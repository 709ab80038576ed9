package domain

// Candle represents a single OHLCV candle. Timestamp is epoch seconds and is
// strictly increasing within any sequence returned by an adapter.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// SupportedIntervals is the interval vocabulary accepted at the boundary.
// Adapters translate these codes into each provider's own resolution strings.
var SupportedIntervals = []string{"1", "5", "15", "30", "60", "D", "W", "M"}

// IsValidInterval reports whether code is part of the accepted vocabulary.
func IsValidInterval(code string) bool {
	for _, c := range SupportedIntervals {
		if code == c {
			return true
		}
	}
	return false
}

// Closes extracts the close series from a candle sequence.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
