// Package ta computes technical indicators from normalized candle data.
// All functions are pure: same input, same output, no retained state.
package ta

import (
	"math"

	"stockdesk/internal/domain"
)

const (
	DefaultRsiPeriod  = 14
	DefaultMacdFast   = 12
	DefaultMacdSlow   = 26
	DefaultMacdSignal = 9
)

// EMASeries returns an exponential moving average series the same length as
// values. The first period-1 entries are NaN (no value yet); the entry at
// period-1 is seeded with the simple mean of the first period values. Inputs
// shorter than period yield an empty series.
func EMASeries(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}

	out := make([]float64, len(values))
	for i := 0; i < period-1; i++ {
		out[i] = math.NaN()
	}

	var seed float64
	for _, v := range values[:period] {
		seed += v
	}
	seed /= float64(period)
	out[period-1] = seed

	multiplier := 2.0 / float64(period+1)
	prev := seed
	for i := period; i < len(values); i++ {
		prev = prev + (values[i]-prev)*multiplier
		out[i] = prev
	}
	return out
}

// CalculateRsiFromCandles derives an RSI series from candle closes using
// Wilder smoothing. A point's timestamp is the candle the delta moves into.
// Fewer than period+1 candles yield an empty result.
func CalculateRsiFromCandles(candles []domain.Candle, period int) []domain.RsiPoint {
	if period <= 0 || len(candles) <= period {
		return nil
	}

	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		delta := candles[i].Close - candles[i-1].Close
		gainSum += math.Max(delta, 0)
		lossSum += math.Max(-delta, 0)
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)

	points := make([]domain.RsiPoint, 0, len(candles)-period)
	points = append(points, domain.RsiPoint{
		Timestamp: candles[period].Timestamp,
		Value:     rsiFromAverages(avgGain, avgLoss),
	})

	for i := period + 1; i < len(candles); i++ {
		delta := candles[i].Close - candles[i-1].Close
		avgGain = (avgGain*float64(period-1) + math.Max(delta, 0)) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + math.Max(-delta, 0)) / float64(period)
		points = append(points, domain.RsiPoint{
			Timestamp: candles[i].Timestamp,
			Value:     rsiFromAverages(avgGain, avgLoss),
		})
	}
	return points
}

// rsiFromAverages maps smoothed averages to an RSI value. A zero average loss
// means maximum strength, reported as exactly 100.
func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// CalculateMacdFromCandles derives MACD, signal, and histogram series from
// candle closes. The signal line is the EMA of the MACD line after dropping
// its warm-up entries, re-aligned onto the original timestamps. Fewer than
// slow+signal candles yield an empty result.
func CalculateMacdFromCandles(candles []domain.Candle, fast, slow, signal int) []domain.MacdPoint {
	if fast <= 0 || slow <= 0 || signal <= 0 || len(candles) < slow+signal {
		return nil
	}

	closes := domain.Closes(candles)
	fastEMA := EMASeries(closes, fast)
	slowEMA := EMASeries(closes, slow)

	// The MACD line exists only where both EMAs do, i.e. from slow-1 on.
	macdValues := make([]float64, 0, len(closes)-slow+1)
	macdIndexes := make([]int, 0, len(closes)-slow+1)
	for i := range closes {
		if math.IsNaN(fastEMA[i]) || math.IsNaN(slowEMA[i]) {
			continue
		}
		macdValues = append(macdValues, fastEMA[i]-slowEMA[i])
		macdIndexes = append(macdIndexes, i)
	}

	signalEMA := EMASeries(macdValues, signal)
	if len(signalEMA) == 0 {
		return nil
	}

	points := make([]domain.MacdPoint, 0, len(macdValues))
	for k, sig := range signalEMA {
		if math.IsNaN(sig) {
			continue
		}
		macd := macdValues[k]
		points = append(points, domain.MacdPoint{
			Timestamp: candles[macdIndexes[k]].Timestamp,
			Macd:      macd,
			Signal:    sig,
			Histogram: macd - sig,
		})
	}
	return points
}
