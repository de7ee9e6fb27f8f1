package usecase

import "TickPulse/internal/domain/models"

// Evaluate turns indicator values into a trade decision. It has no memory: the same
// inputs always yield the same signal, and a signal repeats on every tick while its
// condition holds.
func Evaluate(ind models.Indicators, threshold float64) models.Signal {
	if !ind.HasShort || !ind.HasLong {
		return models.SignalNone
	}
	switch {
	case ind.ShortEMA > ind.LongEMA && ind.Z > threshold:
		return models.SignalBuy
	case ind.ShortEMA < ind.LongEMA && ind.Z < -threshold:
		return models.SignalSell
	default:
		return models.SignalNone
	}
}
