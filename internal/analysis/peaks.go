package analysis

import (
	"math"
	"slices"
)

// PeakDetector locates heartbeats in a filtered waveform and returns their
// sample indices in ascending order.
type PeakDetector interface {
	Detect(data []float64, sampleRate float64) []int
}

// ThresholdPeakDetector accepts interior local maxima above an adaptive
// threshold, with a refractory period after every accepted beat.
type ThresholdPeakDetector struct {
	// ThresholdFactor positions the threshold between the median and the
	// 75th percentile. Zero means 0.5.
	ThresholdFactor float64

	// Refractory is the minimum spacing in samples between accepted peaks.
	// Zero means floor(sampleRate/3), the 180 BPM ceiling.
	Refractory int
}

// AdaptiveThreshold returns median + (Q75 - median) * factor.
func AdaptiveThreshold(data []float64, factor float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := slices.Clone(data)
	slices.Sort(sorted)
	med := orderStat(sorted, 0.5)
	q75 := orderStat(sorted, 0.75)
	return med + (q75-med)*factor
}

func (d ThresholdPeakDetector) Detect(data []float64, sampleRate float64) []int {
	if len(data) < 3 {
		return nil
	}

	factor := d.ThresholdFactor
	if factor == 0 {
		factor = 0.5
	}
	refractory := d.Refractory
	if refractory <= 0 {
		refractory = int(math.Floor(sampleRate / 3))
	}

	threshold := AdaptiveThreshold(data, factor)

	var peaks []int
	for i := 1; i < len(data)-1; i++ {
		v := data[i]
		if v <= data[i-1] || v <= data[i+1] || v <= threshold {
			continue
		}
		// earliest peak wins inside the refractory period
		if len(peaks) > 0 && i-peaks[len(peaks)-1] < refractory {
			continue
		}
		peaks = append(peaks, i)
	}
	return peaks
}
