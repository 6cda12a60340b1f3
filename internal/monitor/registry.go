package monitor

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
)

var ErrUnknownStream = errors.New("monitor: unknown stream")

// Registry keeps one independent Monitor per stream name.
type Registry struct {
	base Config

	mu       sync.RWMutex
	monitors map[string]*Monitor
}

// NewRegistry returns an empty Registry. base is the template for every
// monitor it creates; its Stream field is ignored.
func NewRegistry(base Config) *Registry {
	return &Registry{base: base, monitors: make(map[string]*Monitor)}
}

// Get returns the stream's monitor, creating it on first use.
func (r *Registry) Get(stream string) *Monitor {
	r.mu.RLock()
	m, ok := r.monitors[stream]
	r.mu.RUnlock()
	if ok {
		return m
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.monitors[stream]; ok {
		return m
	}
	cfg := r.base
	cfg.Stream = stream
	m = New(cfg)
	r.monitors[stream] = m
	return m
}

// Lookup returns an existing monitor without creating one.
func (r *Registry) Lookup(stream string) (*Monitor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.monitors[stream]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStream, stream)
	}
	return m, nil
}

// Streams lists the known stream names in order.
func (r *Registry) Streams() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.monitors))
	for name := range r.monitors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Reset resets every monitor.
func (r *Registry) Reset() {
	for _, name := range r.Streams() {
		if m, err := r.Lookup(name); err == nil {
			m.Reset()
		}
	}
}

// CombinedHeartRate averages the latest heart rate of every stream that has
// one, rounded to one decimal.
func (r *Registry) CombinedHeartRate() (float64, bool) {
	var sum float64
	var n int
	for _, name := range r.Streams() {
		m, err := r.Lookup(name)
		if err != nil {
			continue
		}
		if est, ok := m.Latest(); ok {
			sum += est.HeartRate
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return roundTenth(sum / float64(n)), true
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
