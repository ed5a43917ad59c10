package optimization

import "math"

// ConstantCutoff keeps the same elite fraction every generation
func ConstantCutoff(fraction float64) CutoffSchedule {
	return func(int, int) float64 {
		return fraction
	}
}

// LinearCutoff moves the elite fraction from lo at generation 1 to hi at the
// last generation
func LinearCutoff(lo, hi float64) CutoffSchedule {
	return func(generation, maxGenerations int) float64 {
		if maxGenerations <= 1 {
			return lo
		}
		progress := float64(generation-1) / float64(maxGenerations-1)
		progress = math.Max(0, math.Min(1, progress))
		return lo + progress*(hi-lo)
	}
}

// EliteCount returns round(fraction x size), clamped to [0, size]
func EliteCount(fraction float64, size int) int {
	k := int(math.Round(fraction * float64(size)))
	if k < 0 {
		return 0
	}
	if k > size {
		return size
	}
	return k
}
