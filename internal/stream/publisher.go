package stream

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/ivanzxc/go-rppg-stream/internal/logging"
	"github.com/ivanzxc/go-rppg-stream/internal/metrics"
)

// Publisher is the publishing half of *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// BreakerSettings tunes a BreakerPublisher. Zero fields take defaults.
type BreakerSettings struct {
	Name string
	// Trips after this many publishes fail in a row. Default 5.
	MaxFailures uint32
	// How long the breaker stays open before letting one publish through.
	// Default 10s.
	OpenTimeout time.Duration
}

// BreakerPublisher stops publishing to a broker that keeps failing, so a
// dead connection costs one fast rejection per message instead of a
// blocked callback.
type BreakerPublisher struct {
	next Publisher
	name string
	cb   *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerPublisher(next Publisher, s BreakerSettings) *BreakerPublisher {
	if s.Name == "" {
		s.Name = "nats-publish"
	}
	if s.MaxFailures == 0 {
		s.MaxFailures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 10 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= s.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &BreakerPublisher{next: next, name: s.Name, cb: cb}
}

func (p *BreakerPublisher) Publish(subject string, data []byte) error {
	_, err := p.cb.Execute(func() (struct{}, error) {
		return struct{}{}, p.next.Publish(subject, data)
	})
	switch {
	case err == nil:
		metrics.PublishResults.WithLabelValues(p.name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.PublishResults.WithLabelValues(p.name, "rejected").Inc()
	default:
		metrics.PublishResults.WithLabelValues(p.name, "failure").Inc()
	}
	return err
}

func (p *BreakerPublisher) State() gobreaker.State { return p.cb.State() }

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
