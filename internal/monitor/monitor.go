// Package monitor is the caller side of the estimator: it owns a stream's
// bounded intensity window, its HR/HRV display series and the last value
// shown to the user.
package monitor

import (
	"fmt"
	"sync"
	"time"

	"github.com/ivanzxc/go-rppg-stream/internal/analysis"
	"github.com/ivanzxc/go-rppg-stream/internal/logging"
	"github.com/ivanzxc/go-rppg-stream/internal/metrics"
	"github.com/ivanzxc/go-rppg-stream/internal/ring"
)

const (
	DefaultSampleRate      = 30.0
	DefaultWindowSeconds   = 120.0
	DefaultMaxSeriesPoints = 300

	// Placeholder is shown until the first estimate of a session.
	Placeholder = "--"
)

type Config struct {
	Stream          string
	SampleRate      float64
	WindowSeconds   float64
	MaxSeriesPoints int
	LowCut          float64
	HighCut         float64

	// Now stamps series points. Defaults to time.Now.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.WindowSeconds <= 0 {
		c.WindowSeconds = DefaultWindowSeconds
	}
	if c.MaxSeriesPoints <= 0 {
		c.MaxSeriesPoints = DefaultMaxSeriesPoints
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Display is what the UI shows for one stream.
type Display struct {
	HeartRate string `json:"hr"`
	HRV       string `json:"hrv"`
}

// Monitor tracks one camera stream. Streams never share a Monitor.
type Monitor struct {
	cfg Config
	est *analysis.Estimator

	mu      sync.Mutex
	window  *ring.Buffer
	hr      []analysis.Point
	hrv     []analysis.Point
	last    analysis.Estimate
	hasLast bool
	outcome analysis.Outcome
}

func New(cfg Config) *Monitor {
	cfg = cfg.withDefaults()

	est := analysis.NewEstimator(cfg.SampleRate)
	est.Filter = analysis.MovingAverageBandPass{LowCut: cfg.LowCut, HighCut: cfg.HighCut}
	est.Now = cfg.Now

	return &Monitor{
		cfg:     cfg,
		est:     est,
		window:  ring.New(int(cfg.SampleRate * cfg.WindowSeconds)),
		outcome: analysis.InsufficientData,
	}
}

func (m *Monitor) Stream() string { return m.cfg.Stream }

// Push appends one intensity sample and re-runs the estimator over the
// window. A successful estimate replaces the displayed value; any other
// outcome leaves the previous one in place.
func (m *Monitor) Push(v float64) (analysis.Estimate, analysis.Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.window.Push(v)
	metrics.SamplesIngested.WithLabelValues(m.cfg.Stream).Inc()

	start := time.Now()
	res, outcome := m.est.Evaluate(m.window.Values(), m.hr, m.hrv)
	metrics.RecordEstimate(m.cfg.Stream, outcome.String(), time.Since(start), res.HeartRate, res.HRV)

	if outcome != m.outcome {
		logging.Debug().
			Str("stream", m.cfg.Stream).
			Stringer("from", m.outcome).
			Stringer("to", outcome).
			Int("samples", m.window.Len()).
			Msg("estimator state changed")
		m.outcome = outcome
	}
	if outcome != analysis.Estimated {
		return analysis.Estimate{}, outcome
	}

	m.hr = analysis.TrimSeries(res.HRSeries, m.cfg.MaxSeriesPoints)
	m.hrv = analysis.TrimSeries(res.HRVSeries, m.cfg.MaxSeriesPoints)
	m.last, m.hasLast = res.Estimate, true
	return res.Estimate, outcome
}

// Latest returns the last good estimate, if any since the last reset.
func (m *Monitor) Latest() (analysis.Estimate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.hasLast
}

func (m *Monitor) Display() Display {
	est, ok := m.Latest()
	if !ok {
		return Display{HeartRate: Placeholder, HRV: Placeholder}
	}
	return Display{
		HeartRate: fmt.Sprintf("%.1f", est.HeartRate),
		HRV:       fmt.Sprintf("%.1f", est.HRV),
	}
}

// Series returns copies of the HR and HRV display series.
func (m *Monitor) Series() (hr, hrv []analysis.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]analysis.Point(nil), m.hr...), append([]analysis.Point(nil), m.hrv...)
}

// Samples is the current window length.
func (m *Monitor) Samples() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.window.Len()
}

// Reset drops the window, the series and the displayed value.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

// EndSession summarises and resets under one lock. The monitor is reset
// even when the summary fails with ErrNotEnoughData.
func (m *Monitor) EndSession() (Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := Summarize(m.cfg.Stream, m.hr, m.hrv)
	m.reset()
	return s, err
}

func (m *Monitor) reset() {
	m.window.Reset()
	m.hr, m.hrv = nil, nil
	m.last, m.hasLast = analysis.Estimate{}, false
	m.outcome = analysis.InsufficientData
	metrics.ResetStream(m.cfg.Stream)
}

// Summary builds a session summary from the current series.
func (m *Monitor) Summary() (Summary, error) {
	hr, hrv := m.Series()
	return Summarize(m.cfg.Stream, hr, hrv)
}
