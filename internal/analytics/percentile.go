package analytics

import "sort"

// Percentile returns the p-th percentile (0..1) of the samples using linear
// interpolation between closest ranks: position = p * (n - 1). The input is
// sorted in place.
func Percentile(samples []float64, p float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sort.Float64s(samples)
	if p <= 0 {
		return samples[0]
	}
	if p >= 1 {
		return samples[len(samples)-1]
	}

	pos := p * float64(len(samples)-1)
	lower := int(pos)
	upper := lower + 1
	if upper >= len(samples) {
		return samples[lower]
	}
	frac := pos - float64(lower)
	return samples[lower] + frac*(samples[upper]-samples[lower])
}
