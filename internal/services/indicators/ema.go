// Package indicators holds the pure numeric routines behind the trading signal.
// Every value is recomputed from the current window snapshot; nothing is carried between calls.
package indicators

import "TickPulse/internal/domain/models"

// MinZScoreSamples is the smallest window for which a z-score is defined.
const MinZScoreSamples = 20

// EMA computes the exponential moving average of series with smoothing k = 2/(period+1).
// The accumulator is seeded with the first element. It returns false when the series
// is shorter than period.
func EMA(series []float64, period int) (float64, bool) {
	if period <= 0 || len(series) < period {
		return 0, false
	}
	k := 2.0 / float64(period+1)
	acc := series[0]
	for _, p := range series[1:] {
		acc = p*k + acc*(1-k)
	}
	return acc, true
}

// Compute derives both EMAs and the z-score from one snapshot.
func Compute(series []float64, shortPeriod, longPeriod int) models.Indicators {
	var ind models.Indicators
	ind.ShortEMA, ind.HasShort = EMA(series, shortPeriod)
	ind.LongEMA, ind.HasLong = EMA(series, longPeriod)
	ind.Z = ZScore(series)
	return ind
}
