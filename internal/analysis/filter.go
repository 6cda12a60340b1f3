package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// DefaultLowCut is the lower pass-band edge in Hz (45 BPM).
	DefaultLowCut = 0.75
	// DefaultHighCut is the upper pass-band edge in Hz (180 BPM).
	DefaultHighCut = 3.0
)

// Filter isolates the cardiac band of a detrended series.
type Filter interface {
	Apply(data []float64, sampleRate float64) []float64
}

// MovingAverageBandPass approximates a band-pass filter with two boxcar
// passes: a detrend whose window spans one period of LowCut (high-pass) and
// a centred moving average spanning half a period of HighCut (low-pass).
//
// The pass-band edges are only approximately honoured. A true IIR design can
// be dropped in through the Filter interface.
type MovingAverageBandPass struct {
	LowCut  float64
	HighCut float64
}

// NewBandPass returns the 0.75-3.0 Hz filter.
func NewBandPass() MovingAverageBandPass {
	return MovingAverageBandPass{LowCut: DefaultLowCut, HighCut: DefaultHighCut}
}

func (f MovingAverageBandPass) Apply(data []float64, sampleRate float64) []float64 {
	low, high := f.LowCut, f.HighCut
	if low <= 0 {
		low = DefaultLowCut
	}
	if high <= 0 {
		high = DefaultHighCut
	}

	highPassed := Detrend(data, int(math.Ceil(sampleRate/low)))
	return smooth(highPassed, int(math.Ceil(sampleRate/(high*2))))
}

// smooth is a centred moving average over [i-floor(w/2), i+ceil(w/2)).
func smooth(data []float64, w int) []float64 {
	w = max(w, 0)
	before, after := w/2, (w+1)/2

	out := make([]float64, len(data))
	for i := range data {
		start, end := clip(i-before, i+after, len(data))
		out[i] = floats.Sum(data[start:end]) / float64(end-start)
	}
	return out
}
