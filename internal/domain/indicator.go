package domain

// RsiPoint is one RSI observation. Value sits in [0, 100] in practice but is
// not clamped.
type RsiPoint struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// MacdPoint is one MACD observation. Histogram is always Macd minus Signal.
type MacdPoint struct {
	Timestamp int64   `json:"timestamp"`
	Macd      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}
