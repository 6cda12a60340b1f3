package analysis

import (
	"slices"

	"gonum.org/v1/gonum/floats"
)

// DefaultDetrendWindow is the window used for the first detrending pass:
// 10% of the series length.
func DefaultDetrendWindow(n int) int {
	return n / 10
}

// Detrend removes slow baseline drift by subtracting a centred moving
// average of width windowSize from every sample.
//
// Windows are clipped at the edges, never padded. When the series is
// shorter than 2*windowSize there is not enough signal to estimate the
// baseline and a copy of the input is returned as is.
func Detrend(data []float64, windowSize int) []float64 {
	n := len(data)
	if windowSize < 0 {
		windowSize = 0
	}
	if n < 2*windowSize {
		return slices.Clone(data)
	}

	half := windowSize / 2
	out := make([]float64, n)
	for i, v := range data {
		start, end := clip(i-half, i+half, n)
		out[i] = v - floats.Sum(data[start:end])/float64(end-start)
	}
	return out
}

func clip(start, end, n int) (int, int) {
	start = max(0, start)
	end = min(n, end)
	if end <= start {
		end = min(n, start+1)
		start = end - 1
	}
	return start, end
}
