package features

import (
	"math"
	"slices"

	"golang.org/x/exp/constraints"
)

type number interface {
	constraints.Integer | constraints.Float
}

// median returns the middle value of values, averaging the two middle
// values for even lengths. ok is false for an empty input.
func median[T number](values []T) (m float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid]), true
	}
	return (float64(sorted[mid-1]) + float64(sorted[mid])) / 2, true
}

// quantile returns the p-quantile of sorted by linear interpolation between
// the closest ranks, the convention of numpy's default method.
func quantile[T number](sorted []T, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return float64(sorted[lo]) + (float64(sorted[hi])-float64(sorted[lo]))*frac
}

// quantileBreakpoints returns the cut points that split values into q
// groups of roughly equal size: the quantiles at 1/q ... (q-1)/q.
func quantileBreakpoints[T number](values []T, q int) []float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	cuts := make([]float64, 0, q-1)
	for k := 1; k < q; k++ {
		cuts = append(cuts, quantile(sorted, float64(k)/float64(q)))
	}
	return cuts
}

// mode returns the most frequent value; ties go to the smallest value.
func mode[T constraints.Ordered](values []T) (m T, ok bool) {
	if len(values) == 0 {
		return m, false
	}
	counts := make(map[T]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best := -1
	for v, c := range counts {
		if c > best || (c == best && v < m) {
			m, best = v, c
		}
	}
	return m, true
}

// binIndex maps x onto 1..len(breakpoints)+1: x <= b[0] is bin 1,
// b[i-1] < x <= b[i] is bin i+1 and anything above the last breakpoint
// lands in the last bin.
func binIndex(x float64, breakpoints []float64) float64 {
	for i, b := range breakpoints {
		if x <= b {
			return float64(i + 1)
		}
	}
	return float64(len(breakpoints) + 1)
}
