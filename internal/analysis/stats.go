package analysis

import (
	"math"
	"slices"
)

// sorted must not be empty.
func orderStat(sorted []float64, p float64) float64 {
	i := int(float64(len(sorted)) * p)
	return sorted[min(i, len(sorted)-1)]
}

func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return orderStat(sorted, 0.5)
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// finite drops NaN and ±Inf samples.
func finite(data []float64) []float64 {
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out := slices.Clone(data[:i])
			for _, w := range data[i+1:] {
				if !math.IsNaN(w) && !math.IsInf(w, 0) {
					out = append(out, w)
				}
			}
			return out
		}
	}
	return data
}
