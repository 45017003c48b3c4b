package core

// Band is the magnitude class of an amount, used only to colour it on screen.
type Band string

const (
	BandLow  Band = "low"
	BandMid  Band = "mid"
	BandHigh Band = "high"
)

const (
	lowBandCeiling = 10_000 * 100  // below this is low
	highBandFloor  = 100_000 * 100 // above this is high
)

// BandOf classifies an amount. Both thresholds fall in the mid band.
func BandOf(m Money) Band {
	switch {
	case m.Cents < lowBandCeiling:
		return BandLow
	case m.Cents > highBandFloor:
		return BandHigh
	default:
		return BandMid
	}
}
