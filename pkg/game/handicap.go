package game

import "math"

// Clock parameter bounds, all in milliseconds. A match between equal
// players gets the base values; a rating gap shifts the stronger player
// toward the minimums and the weaker player toward the maximums.
const (
	BaseTimeMs int64 = 5 * 60 * 1000
	MinTimeMs  int64 = 5 * 1000
	MaxTimeMs  int64 = 10 * 60 * 1000

	BaseIncrementMs int64 = 5 * 1000
	MinIncrementMs  int64 = 1 * 1000
	MaxIncrementMs  int64 = 15 * 1000

	// Gaps below the threshold get no handicap at all; the gap saturates
	// at handicapRange.
	handicapThreshold = 50
	handicapRange     = 750.0
	handicapExponent  = 1.5
)

// HandicapParams are the four clock parameters produced for a rating gap.
// Higher refers to the higher-rated player's side.
type HandicapParams struct {
	HigherTime      int64
	LowerTime       int64
	HigherIncrement int64
	LowerIncrement  int64
}

// ComputeHandicap maps two ratings (higher >= lower) to clock parameters.
// It is a pure function: the same inputs always produce identical outputs.
//
// The scaling is superlinear in the normalized gap, so small gaps barely
// matter and large gaps matter a lot.
func ComputeHandicap(higher, lower int) HandicapParams {
	if higher-lower < handicapThreshold {
		return HandicapParams{
			HigherTime:      BaseTimeMs,
			LowerTime:       BaseTimeMs,
			HigherIncrement: BaseIncrementMs,
			LowerIncrement:  BaseIncrementMs,
		}
	}

	normalized := math.Min(float64(higher-lower)/handicapRange, 1)
	factor := math.Pow(normalized, handicapExponent)

	return HandicapParams{
		HigherTime:      clamp(scaleDown(BaseTimeMs, MinTimeMs, factor), MinTimeMs, BaseTimeMs),
		LowerTime:       clamp(scaleUp(BaseTimeMs, MaxTimeMs, factor), BaseTimeMs, MaxTimeMs),
		HigherIncrement: clamp(scaleDown(BaseIncrementMs, MinIncrementMs, factor), MinIncrementMs, BaseIncrementMs),
		LowerIncrement:  clamp(scaleUp(BaseIncrementMs, MaxIncrementMs, factor), BaseIncrementMs, MaxIncrementMs),
	}
}

// TimeControl returns the handicap as per-color clock parameters given
// which ratings white and black hold. The higher-rated side receives the
// reduced time and increment.
func (p HandicapParams) TimeControl(whiteIsHigher bool) (whiteTime, blackTime, whiteIncrement, blackIncrement int64) {
	if whiteIsHigher {
		return p.HigherTime, p.LowerTime, p.HigherIncrement, p.LowerIncrement
	}
	return p.LowerTime, p.HigherTime, p.LowerIncrement, p.HigherIncrement
}

func scaleDown(base, min int64, factor float64) int64 {
	return int64(math.Round(float64(base) - float64(base-min)*factor))
}

func scaleUp(base, max int64, factor float64) int64 {
	return int64(math.Round(float64(base) + float64(max-base)*factor))
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
