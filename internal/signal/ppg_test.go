package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivanzxc/go-rppg-stream/internal/analysis"
)

func TestPPGSim_Range(t *testing.T) {
	t.Parallel()

	s := NewPPGSim(30, 72, WithAmplitude(400), WithNoise(50))
	for _, v := range s.Fill(300) {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 255.0)
	}
}

func TestPPGSim_Seeded(t *testing.T) {
	t.Parallel()

	a := NewPPGSim(30, 72, WithNoise(1), WithSeed(7)).Fill(100)
	b := NewPPGSim(30, 72, WithNoise(1), WithSeed(7)).Fill(100)
	assert.Equal(t, a, b)
}

func TestPPGSim_BaselineJump(t *testing.T) {
	t.Parallel()

	plain := NewPPGSim(30, 72).Fill(20)
	jumped := NewPPGSim(30, 72, WithBaselineJump(10, 30)).Fill(20)
	for i := range plain {
		want := plain[i]
		if i >= 10 {
			want += 30
		}
		assert.InDelta(t, want, jumped[i], 1e-9, "i=%d", i)
	}
}

func TestPPGSim_RecoveredRate(t *testing.T) {
	t.Parallel()

	for _, bpm := range []float64{60, 72, 90, 110} {
		window := NewPPGSim(30, bpm, WithNoise(0.5), WithSeed(3)).Fill(600)
		res, ok := analysis.CalculateHRMetrics(window, 30, nil, nil)
		require.True(t, ok, "bpm=%v", bpm)
		assert.InDelta(t, bpm, res.HeartRate, 5, "bpm=%v", bpm)
	}
}
