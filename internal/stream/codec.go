package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-json"

	"github.com/ivanzxc/go-rppg-stream/internal/analysis"
)

var ErrShortPayload = errors.New("stream: payload is not a whole number of float32 samples")

// EncodeSamples packs samples as little-endian float32, the wire format of
// the intensity subjects.
func EncodeSamples(samples []float64) []byte {
	out := make([]byte, 4*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(v)))
	}
	return out
}

func DecodeSamples(b []byte) ([]float64, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortPayload, len(b))
	}
	out := make([]float64, len(b)/4)
	for i := range out {
		out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:])))
	}
	return out, nil
}

// ChartPoints is how many trailing series points a ParamMsg carries.
const ChartPoints = 100

// ParamMsg is published after every intensity batch. HR and HRV carry the
// last good estimate and stay nil until the stream has one; Outcome is the
// result of the most recent estimator call.
type ParamMsg struct {
	Stream   string       `json:"stream"`
	Ts       int64        `json:"ts"`
	HR       *float64     `json:"hr"`
	HRV      *float64     `json:"hrv"`
	Outcome  string       `json:"outcome"`
	Samples  int          `json:"samples"`
	HRChart  []ChartPoint `json:"hrChart,omitempty"`
	HRVChart []ChartPoint `json:"hrvChart,omitempty"`
}

func (m *ParamMsg) SetEstimate(est analysis.Estimate) {
	hr, hrv := est.HeartRate, est.HRV
	m.HR, m.HRV = &hr, &hrv
}

// ChartPoint is the {x: unix ms, y: value} form charting libraries expect.
type ChartPoint struct {
	X int64   `json:"x"`
	Y float64 `json:"y"`
}

// SetCharts fills the chart fields from the last ChartPoints of each series.
func (m *ParamMsg) SetCharts(hr, hrv []analysis.Point) {
	m.HRChart = ChartSeries(analysis.TrimSeries(hr, ChartPoints))
	m.HRVChart = ChartSeries(analysis.TrimSeries(hrv, ChartPoints))
}

func ChartSeries(series []analysis.Point) []ChartPoint {
	out := make([]ChartPoint, len(series))
	for i, p := range series {
		out[i] = ChartPoint{X: p.Timestamp.UnixMilli(), Y: p.Value}
	}
	return out
}

func Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("stream: marshal: %w", err)
	}
	return b, nil
}

func Unmarshal(b []byte, v any) error {
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("stream: unmarshal: %w", err)
	}
	return nil
}
