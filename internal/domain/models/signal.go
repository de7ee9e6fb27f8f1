package models

// Indicators holds the values derived from a price window snapshot.
// An EMA is only meaningful when its Has flag is set.
type Indicators struct {
	ShortEMA float64
	LongEMA  float64
	HasShort bool
	HasLong  bool
	Z        float64
}

// Signal is the per-tick trade decision.
type Signal int

const (
	SignalNone Signal = iota
	SignalBuy
	SignalSell
)

func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "buy"
	case SignalSell:
		return "sell"
	default:
		return "none"
	}
}

// Direction maps an actionable signal to an order direction. None has no direction.
func (s Signal) Direction() (Direction, bool) {
	switch s {
	case SignalBuy:
		return DirectionBuy, true
	case SignalSell:
		return DirectionSell, true
	default:
		return "", false
	}
}
