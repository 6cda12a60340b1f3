package signal

import (
	"math"
	"math/rand/v2"
)

// PPGSim generates a camera-intensity trace (0-255 luma) carrying a pulse
// wave at hrBPM, sampled at fs Hz. Not clinical: a systolic and a diastolic
// gaussian per cycle on a constant baseline, plus uniform noise.
type PPGSim struct {
	fs        float64
	hrBPM     float64
	baseline  float64
	amplitude float64
	noise     float64

	phase float64
	n     int
	rng   *rand.Rand

	jumpAt int
	jump   float64
}

type Option func(*PPGSim)

// WithBaseline sets the resting luma level (default 128).
func WithBaseline(v float64) Option { return func(s *PPGSim) { s.baseline = v } }

// WithAmplitude sets the pulse amplitude in luma units (default 4).
func WithAmplitude(v float64) Option { return func(s *PPGSim) { s.amplitude = v } }

// WithNoise sets the peak uniform noise in luma units (default 0).
func WithNoise(v float64) Option { return func(s *PPGSim) { s.noise = v } }

// WithSeed fixes the noise sequence.
func WithSeed(seed uint64) Option {
	return func(s *PPGSim) { s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithBaselineJump adds delta to every sample from index at onwards, the way
// an exposure change shifts the whole frame.
func WithBaselineJump(at int, delta float64) Option {
	return func(s *PPGSim) { s.jumpAt, s.jump = at, delta }
}

// NewPPGSim fs=30 for a camera, hrBPM typically 60-120.
func NewPPGSim(fs, hrBPM float64, opts ...Option) *PPGSim {
	s := &PPGSim{
		fs:        fs,
		hrBPM:     hrBPM,
		baseline:  128,
		amplitude: 4,
		jumpAt:    -1,
	}
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(1, 2))
	}
	return s
}

// SetHeartRate changes the pulse rate without a phase discontinuity.
func (s *PPGSim) SetHeartRate(bpm float64) { s.hrBPM = bpm }

// Next returns the next sample and advances time by 1/fs.
func (s *PPGSim) Next() float64 {
	s.phase += s.hrBPM / 60.0 / s.fs
	if s.phase >= 1.0 {
		s.phase -= 1.0
	}

	t := s.phase
	pulse := gauss(t, 0.25, 0.08) + 0.4*gauss(t, 0.55, 0.1)

	v := s.baseline + s.amplitude*pulse
	if s.noise > 0 {
		v += s.noise * (2*s.rng.Float64() - 1)
	}
	if s.jumpAt >= 0 && s.n >= s.jumpAt {
		v += s.jump
	}
	s.n++
	return math.Min(255, math.Max(0, v))
}

// Fill returns the next n samples.
func (s *PPGSim) Fill(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = s.Next()
	}
	return out
}

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}
