package seekbar

import "github.com/samber/lo"

// MinBarHeight keeps silent stretches visible as a thin line.
const MinBarHeight = 0.01

// Reduce maps raw amplitude samples onto barCount normalized heights in
// [MinBarHeight, 1]. Bar b takes the sample at (b+1)*len/barCount, i.e. the
// last sample of its bucket, divided by the loudest sample.
//
// Empty input, a non-positive bar count or an all-zero sequence yields an
// empty profile.
func Reduce(samples []int, barCount int) []float64 {
	if len(samples) == 0 || barCount <= 0 {
		return []float64{}
	}

	peak := lo.Max(samples)
	if peak <= 0 {
		return []float64{}
	}

	heights := make([]float64, barCount)
	for b := range heights {
		idx := lo.Clamp((b+1)*len(samples)/barCount, 0, len(samples)-1)
		heights[b] = max(float64(samples[idx])/float64(peak), MinBarHeight)
	}
	return heights
}
