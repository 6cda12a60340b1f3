package monitor

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/ivanzxc/go-rppg-stream/internal/analysis"
)

const (
	// MaxSummaryPoints is how many trailing HR points a summary covers.
	MaxSummaryPoints = 300
	// MinSummaryPoints is the shortest HR series worth summarising.
	MinSummaryPoints = 100
)

var ErrNotEnoughData = errors.New("monitor: not enough estimates for a session summary")

// SummaryMetric pairs an HR point with the HRV computed in the same call.
// HRV is nil when the series lengths disagree and no partner exists.
type SummaryMetric struct {
	Timestamp time.Time `json:"timestamp"`
	HeartRate float64   `json:"heartRate"`
	HRV       *float64  `json:"hrv"`
}

// Summary describes one measured session of a stream.
type Summary struct {
	SessionID      string          `json:"sessionId"`
	Stream         string          `json:"stream"`
	FirstTimestamp time.Time       `json:"firstTimestamp"`
	LastTimestamp  time.Time       `json:"lastTimestamp"`
	DurationMs     int64           `json:"durationMs"`
	SampleCount    int             `json:"sampleCount"`
	AvgHeartRate   float64         `json:"avgHeartRate"`
	AvgHRV         *float64        `json:"avgHrv"`
	Metrics        []SummaryMetric `json:"metrics"`
}

// Summarize pairs the last MaxSummaryPoints HR points with the tail-aligned
// HRV points and averages both.
func Summarize(stream string, hr, hrv []analysis.Point) (Summary, error) {
	hr = analysis.TrimSeries(hr, MaxSummaryPoints)
	if len(hr) < MinSummaryPoints {
		return Summary{}, ErrNotEnoughData
	}
	hrv = analysis.TrimSeries(hrv, MaxSummaryPoints)
	offset := max(0, len(hrv)-len(hr))

	samples := make([]SummaryMetric, len(hr))
	rates := make([]float64, len(hr))
	var variability []float64
	for i, p := range hr {
		samples[i] = SummaryMetric{Timestamp: p.Timestamp, HeartRate: p.Value}
		rates[i] = p.Value
		if j := offset + i; j < len(hrv) {
			v := hrv[j].Value
			samples[i].HRV = &v
			variability = append(variability, v)
		}
	}

	first, last := hr[0].Timestamp, hr[len(hr)-1].Timestamp
	s := Summary{
		SessionID:      uuid.NewString(),
		Stream:         stream,
		FirstTimestamp: first,
		LastTimestamp:  last,
		SampleCount:    len(samples),
		AvgHeartRate:   roundTenth(stat.Mean(rates, nil)),
		Metrics:        samples,
	}
	if !last.Before(first) {
		s.DurationMs = last.Sub(first).Milliseconds()
	}
	if len(variability) > 0 {
		avg := roundTenth(stat.Mean(variability, nil))
		s.AvgHRV = &avg
	}
	return s, nil
}
