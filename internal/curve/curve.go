package curve

import "math"

// The Scarlett output fader is decibel-linear, which feels badly skewed to a
// human ear: almost all of the audible travel is crammed into the top few dB.
// The UI therefore works in a perceptual "percent of travel" space and this
// package maps between the two. The exponent is tuned so that 50% lands at
// roughly -16 dB, which matches how loudness perception distributes itself
// over the device's -127..0 dB range.
const exponent = 0.194

// Device limits in decibels. The vendor control only accepts integers in
// this range; +6 dB boost headroom is handled by the controller's ceiling,
// not by the curve.
const (
	MinDB = -127.0
	MaxDB = 0.0
)

// PercentToDB converts a 0-100 slider percent to device decibels.
// Values at or below 0 map to exactly MinDB, values at or above 100 to
// exactly MaxDB. Monotonically non-decreasing over the whole domain.
func PercentToDB(percent float64) float64 {
	if percent <= 0 {
		return MinDB
	}
	if percent >= 100 {
		return MaxDB
	}

	db := 127.0*math.Pow(percent/100.0, exponent) - 127.0
	return clamp(db, MinDB, MaxDB)
}

// DBToPercent converts device decibels to a 0-100 slider percent.
// Inverse of PercentToDB away from the clamped boundaries.
func DBToPercent(db float64) float64 {
	if db >= MaxDB {
		return 100
	}
	if db <= MinDB {
		return 0
	}

	percent := 100.0 * math.Pow((db+127.0)/127.0, 1.0/exponent)
	return clamp(percent, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
