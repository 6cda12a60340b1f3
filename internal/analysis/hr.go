package analysis

import (
	"math"
	"time"
)

// MinSamples is the shortest window for which an estimate is attempted.
const MinSamples = 50

// Estimate is a heart rate in BPM and its SDNN in ms, both rounded to one
// decimal.
type Estimate struct {
	HeartRate float64
	HRV       float64
}

// Result is a successful estimate plus the display series with the new
// point appended.
type Result struct {
	Estimate
	HRSeries  []Point
	HRVSeries []Point
}

// Outcome names how a call ended. Every outcome other than Estimated means
// "no value yet"; none of them is an error.
type Outcome int

const (
	Estimated Outcome = iota
	InsufficientData
	NoBeats
	NoValidIntervals
	OutliersRejected
	Implausible
)

func (o Outcome) String() string {
	switch o {
	case Estimated:
		return "estimated"
	case InsufficientData:
		return "insufficient_data"
	case NoBeats:
		return "no_beats"
	case NoValidIntervals:
		return "no_valid_intervals"
	case OutliersRejected:
		return "outliers_rejected"
	case Implausible:
		return "implausible"
	default:
		return "unknown"
	}
}

// Estimator runs detrend → band-pass → peak detection → RR cleaning →
// HR/HRV on an intensity window. It holds configuration only; the window
// and the display series are passed in on every call, so one Estimator may
// be shared or each stream may own its own.
type Estimator struct {
	SampleRate float64
	Filter     Filter
	Peaks      PeakDetector

	// Now stamps new series points. Defaults to time.Now.
	Now func() time.Time
}

// NewEstimator returns an Estimator with the moving-average band-pass and
// the adaptive threshold peak detector.
func NewEstimator(sampleRate float64) *Estimator {
	return &Estimator{
		SampleRate: sampleRate,
		Filter:     NewBandPass(),
		Peaks:      ThresholdPeakDetector{},
		Now:        time.Now,
	}
}

// Evaluate estimates HR and HRV from window. On success the returned series
// are fresh copies of prevHR and prevHRV with exactly one point appended;
// otherwise Result is zero and the caller keeps its series.
func (e *Estimator) Evaluate(window []float64, prevHR, prevHRV []Point) (Result, Outcome) {
	rate := e.SampleRate
	samples := finite(window)
	if len(samples) < MinSamples || !(rate > 0) || math.IsInf(rate, 0) {
		return Result{}, InsufficientData
	}

	filtered := e.filter().Apply(Detrend(samples, DefaultDetrendWindow(len(samples))), rate)

	peaks := e.peaks().Detect(filtered, rate)
	if len(peaks) < 2 {
		return Result{}, NoBeats
	}

	rr := FilterRange(RRIntervals(peaks, rate), MinRR, MaxRR)
	if len(rr) < 2 {
		return Result{}, NoValidIntervals
	}

	clean := RemoveOutliers(rr)
	if len(clean) < 2 {
		return Result{}, OutliersRejected
	}

	hr, sdnn, ok := Metrics(clean)
	if !ok {
		return Result{}, Implausible
	}

	est := Estimate{HeartRate: round1(hr), HRV: round1(sdnn)}
	now := e.now()
	return Result{
		Estimate:  est,
		HRSeries:  appendPoint(prevHR, Point{Timestamp: now, Value: est.HeartRate}),
		HRVSeries: appendPoint(prevHRV, Point{Timestamp: now, Value: est.HRV}),
	}, Estimated
}

func (e *Estimator) filter() Filter {
	if e.Filter == nil {
		return NewBandPass()
	}
	return e.Filter
}

func (e *Estimator) peaks() PeakDetector {
	if e.Peaks == nil {
		return ThresholdPeakDetector{}
	}
	return e.Peaks
}

func (e *Estimator) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// CalculateHRMetrics is the one-shot form of Estimator.Evaluate with the
// default filter and detector. ok is false when no estimate is available.
func CalculateHRMetrics(window []float64, sampleRate float64, prevHR, prevHRV []Point) (Result, bool) {
	res, outcome := NewEstimator(sampleRate).Evaluate(window, prevHR, prevHRV)
	return res, outcome == Estimated
}
