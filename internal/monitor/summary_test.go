package monitor

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivanzxc/go-rppg-stream/internal/analysis"
	"github.com/ivanzxc/go-rppg-stream/internal/signal"
)

func series(n int, start time.Time, value func(i int) float64) []analysis.Point {
	out := make([]analysis.Point, n)
	for i := range out {
		out[i] = analysis.Point{Timestamp: start.Add(time.Duration(i) * time.Second), Value: value(i)}
	}
	return out
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("not enough points", func(t *testing.T) {
		t.Parallel()
		hr := series(MinSummaryPoints-1, start, func(int) float64 { return 70 })
		_, err := Summarize("front", hr, hr)
		require.ErrorIs(t, err, ErrNotEnoughData)
	})

	t.Run("averages and duration", func(t *testing.T) {
		t.Parallel()
		hr := series(120, start, func(i int) float64 { return 60 + float64(i%2)*10 })
		hrv := series(120, start, func(int) float64 { return 20 })

		s, err := Summarize("front", hr, hrv)
		require.NoError(t, err)

		assert.NotEmpty(t, s.SessionID)
		assert.Equal(t, "front", s.Stream)
		assert.Equal(t, 120, s.SampleCount)
		assert.Equal(t, 65.0, s.AvgHeartRate)
		require.NotNil(t, s.AvgHRV)
		assert.Equal(t, 20.0, *s.AvgHRV)
		assert.Equal(t, start, s.FirstTimestamp)
		assert.Equal(t, start.Add(119*time.Second), s.LastTimestamp)
		assert.Equal(t, int64(119000), s.DurationMs)
	})

	t.Run("keeps only the trailing points", func(t *testing.T) {
		t.Parallel()
		hr := series(MaxSummaryPoints+50, start, func(i int) float64 { return float64(i) })
		s, err := Summarize("front", hr, hr)
		require.NoError(t, err)

		assert.Equal(t, MaxSummaryPoints, s.SampleCount)
		assert.Equal(t, 50.0, s.Metrics[0].HeartRate)
	})

	t.Run("hrv aligned to the tail", func(t *testing.T) {
		t.Parallel()
		hr := series(100, start, func(int) float64 { return 70 })
		hrv := series(105, start, func(i int) float64 { return float64(i) })

		s, err := Summarize("front", hr, hrv)
		require.NoError(t, err)
		require.NotNil(t, s.Metrics[0].HRV)
		assert.Equal(t, 5.0, *s.Metrics[0].HRV)
		assert.Equal(t, 104.0, *s.Metrics[99].HRV)
	})

	t.Run("short hrv leaves gaps", func(t *testing.T) {
		t.Parallel()
		hr := series(100, start, func(int) float64 { return 70 })
		hrv := series(40, start, func(int) float64 { return 12 })

		s, err := Summarize("front", hr, hrv)
		require.NoError(t, err)
		assert.NotNil(t, s.Metrics[39].HRV)
		assert.Nil(t, s.Metrics[40].HRV)
		require.NotNil(t, s.AvgHRV)
		assert.Equal(t, 12.0, *s.AvgHRV)
	})

	t.Run("full summary", func(t *testing.T) {
		t.Parallel()
		hr := series(100, start, func(int) float64 { return 72 })
		hrv := series(100, start, func(int) float64 { return 18.25 })

		got, err := Summarize("back", hr, hrv)
		require.NoError(t, err)

		avgHRV, pointHRV := 18.3, 18.25
		metrics := make([]SummaryMetric, 100)
		for i := range metrics {
			metrics[i] = SummaryMetric{Timestamp: hr[i].Timestamp, HeartRate: 72, HRV: &pointHRV}
		}
		want := Summary{
			Stream:         "back",
			FirstTimestamp: start,
			LastTimestamp:  start.Add(99 * time.Second),
			DurationMs:     99000,
			SampleCount:    100,
			AvgHeartRate:   72,
			AvgHRV:         &avgHRV,
			Metrics:        metrics,
		}
		if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(Summary{}, "SessionID")); diff != "" {
			t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("no hrv at all", func(t *testing.T) {
		t.Parallel()
		hr := series(100, start, func(int) float64 { return 70 })
		s, err := Summarize("front", hr, nil)
		require.NoError(t, err)
		assert.Nil(t, s.AvgHRV)
	})
}

func TestMonitorSummary(t *testing.T) {
	t.Parallel()

	m := New(Config{Stream: "front"})
	_, err := m.Summary()
	require.ErrorIs(t, err, ErrNotEnoughData)
}

func TestMonitorEndSession(t *testing.T) {
	t.Parallel()

	m := New(Config{Stream: "front", Now: stepClock()})
	feed(m, signal.NewPPGSim(30, 72).Fill(300))
	hr, _ := m.Series()
	require.GreaterOrEqual(t, len(hr), MinSummaryPoints)

	s, err := m.EndSession()
	require.NoError(t, err)
	assert.Equal(t, len(hr), s.SampleCount)
	assert.Zero(t, m.Samples())
	_, ok := m.Latest()
	assert.False(t, ok)

	t.Run("short session still resets", func(t *testing.T) {
		t.Parallel()
		short := New(Config{Stream: "back"})
		feed(short, signal.NewPPGSim(30, 72).Fill(80))

		_, err := short.EndSession()
		require.ErrorIs(t, err, ErrNotEnoughData)
		assert.Zero(t, short.Samples())
		hr, hrv := short.Series()
		assert.Empty(t, hr)
		assert.Empty(t, hrv)
	})
}
