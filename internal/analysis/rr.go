package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	// MinRR and MaxRR bound a physiologically plausible RR interval in
	// milliseconds (180 and 45 BPM).
	MinRR = 333.0
	MaxRR = 1333.0

	// MinHeartRate and MaxHeartRate gate the final estimate.
	MinHeartRate = 40.0
	MaxHeartRate = 200.0

	// outlierMADs is the rejection radius in median absolute deviations.
	outlierMADs = 3.0
)

// RRIntervals converts consecutive peak indices into intervals in ms.
func RRIntervals(peaks []int, sampleRate float64) []float64 {
	if len(peaks) < 2 {
		return nil
	}
	frameMs := 1000 / sampleRate
	out := make([]float64, 0, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		out = append(out, float64(peaks[i]-peaks[i-1])*frameMs)
	}
	return out
}

// FilterRange keeps intervals inside [lo, hi].
func FilterRange(rr []float64, lo, hi float64) []float64 {
	out := make([]float64, 0, len(rr))
	for _, v := range rr {
		if v >= lo && v <= hi {
			out = append(out, v)
		}
	}
	return out
}

// RemoveOutliers drops intervals further than 3 MADs from the median.
// Sets with fewer than three intervals have no meaningful MAD and are
// returned unchanged.
func RemoveOutliers(rr []float64) []float64 {
	if len(rr) < 3 {
		return rr
	}

	med := median(rr)
	deviations := make([]float64, len(rr))
	for i, v := range rr {
		deviations[i] = math.Abs(v - med)
	}
	limit := outlierMADs * median(deviations)

	out := make([]float64, 0, len(rr))
	for i, v := range rr {
		if deviations[i] <= limit {
			out = append(out, v)
		}
	}
	return out
}

// Metrics turns cleaned RR intervals into heart rate (BPM) and SDNN (ms,
// population standard deviation). ok is false for fewer than two intervals
// or a heart rate outside [MinHeartRate, MaxHeartRate].
func Metrics(clean []float64) (hr, sdnn float64, ok bool) {
	if len(clean) < 2 {
		return 0, 0, false
	}
	hr = 60000 / stat.Mean(clean, nil)
	if hr < MinHeartRate || hr > MaxHeartRate || math.IsNaN(hr) {
		return 0, 0, false
	}
	return hr, stat.PopStdDev(clean, nil), true
}
