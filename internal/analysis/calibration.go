package analysis

import "math"

// SigmoidSlope is the calibration curve steepness. It is a tuned constant.
const SigmoidSlope = 0.08

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

var (
	sigmoidFloor = sigmoid(-50 * SigmoidSlope)
	sigmoidCeil  = sigmoid(50 * SigmoidSlope)
)

// Calibrate remaps a linear percentage through a logistic curve centered at 50, rescaled
// so that 0 and 100 map to themselves. Inputs outside 0..100 are clamped first.
func Calibrate(linear int) int {
	x := float64(clampInt(linear, 0, 100))
	s := sigmoid((x - 50) * SigmoidSlope)
	normalized := (s - sigmoidFloor) / (sigmoidCeil - sigmoidFloor)
	return clampInt(roundHalfUp(normalized*100), 0, 100)
}

// LinearPercentage min-max normalizes sum into 0..100. A degenerate range is 100.
func LinearPercentage(sum, minScore, maxScore int) int {
	if maxScore == minScore {
		return 100
	}
	return roundHalfUp(float64(sum-minScore) / float64(maxScore-minScore) * 100)
}

// roundHalfUp rounds .5 toward positive infinity, so -0.5 becomes 0 and 2.5 becomes 3.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
