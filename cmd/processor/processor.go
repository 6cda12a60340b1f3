package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ivanzxc/go-rppg-stream/internal/analysis"
	"github.com/ivanzxc/go-rppg-stream/internal/logging"
	"github.com/ivanzxc/go-rppg-stream/internal/monitor"
	"github.com/ivanzxc/go-rppg-stream/internal/stream"
)

type processor struct {
	pub      stream.Publisher
	subjects stream.Subjects
	registry *monitor.Registry
	now      func() time.Time
}

func newProcessor(pub stream.Publisher, subjects stream.Subjects, registry *monitor.Registry) *processor {
	return &processor{pub: pub, subjects: subjects, registry: registry, now: time.Now}
}

// subscribe takes every subject of the prefix on one subscription. NATS
// delivers a subscription's messages in publish order on one goroutine, so
// a stream's final batch is always handled before its reset.
func (p *processor) subscribe(nc *nats.Conn) error {
	if _, err := nc.Subscribe(p.subjects.All(), func(msg *nats.Msg) {
		p.handle(msg.Subject, msg.Data)
	}); err != nil {
		return fmt.Errorf("subscribe %s: %w", p.subjects.All(), err)
	}
	return nc.Flush()
}

// handle routes by kind. The processor's own params and summary subjects
// come back on the same subscription and are ignored.
func (p *processor) handle(subject string, data []byte) {
	_, kind, ok := p.subjects.Parse(subject)
	if !ok {
		logging.Warn().Str("subject", subject).Msg("processor: unexpected subject")
		return
	}
	switch kind {
	case stream.KindIntensity:
		p.handleIntensity(subject, data)
	case stream.KindReset:
		p.handleReset(subject)
	}
}

func (p *processor) handleIntensity(subject string, data []byte) {
	name, kind, ok := p.subjects.Parse(subject)
	if !ok || kind != stream.KindIntensity {
		logging.Warn().Str("subject", subject).Msg("processor: unexpected subject")
		return
	}

	samples, err := stream.DecodeSamples(data)
	if err != nil {
		logging.Warn().Err(err).Str("stream", name).Msg("processor: bad payload")
		return
	}
	if len(samples) == 0 {
		return
	}

	m := p.registry.Get(name)
	outcome := analysis.InsufficientData
	for _, v := range samples {
		_, outcome = m.Push(v)
	}

	msg := stream.ParamMsg{
		Stream:  name,
		Ts:      p.now().UnixMilli(),
		Outcome: outcome.String(),
		Samples: m.Samples(),
	}
	if est, ok := m.Latest(); ok {
		msg.SetEstimate(est)
	}
	msg.SetCharts(m.Series())
	p.publishJSON(p.subjects.Params(name), msg)

	if outcome == analysis.Estimated {
		d := m.Display()
		logging.Debug().Str("stream", name).Str("hr", d.HeartRate).Str("hrv", d.HRV).Msg("HR detected")
	}
}

func (p *processor) handleReset(subject string) {
	name, kind, ok := p.subjects.Parse(subject)
	if !ok || kind != stream.KindReset {
		return
	}
	m, err := p.registry.Lookup(name)
	if err != nil {
		logging.Warn().Err(err).Msg("processor: reset")
		return
	}
	p.closeSession(m)
}

// closeAll ends every session, at shutdown.
func (p *processor) closeAll() {
	if hr, ok := p.registry.CombinedHeartRate(); ok {
		logging.Info().Float64("hr", hr).Strs("streams", p.registry.Streams()).Msg("combined heart rate")
	}
	for _, name := range p.registry.Streams() {
		if m, err := p.registry.Lookup(name); err == nil {
			p.closeSession(m)
		}
	}
}

func (p *processor) closeSession(m *monitor.Monitor) {
	summary, err := m.EndSession()
	switch {
	case errors.Is(err, monitor.ErrNotEnoughData):
		logging.Info().Str("stream", m.Stream()).Msg("session too short, no summary")
	case err != nil:
		logging.Warn().Err(err).Str("stream", m.Stream()).Msg("processor: summary")
	default:
		p.publishJSON(p.subjects.Summary(m.Stream()), summary)
		logging.Info().
			Str("stream", m.Stream()).
			Str("session", summary.SessionID).
			Int("samples", summary.SampleCount).
			Float64("avg_hr", summary.AvgHeartRate).
			Msg("session summary published")
	}
}

func (p *processor) publishJSON(subject string, v any) {
	b, err := stream.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Str("subject", subject).Msg("processor: encode")
		return
	}
	if err := p.pub.Publish(subject, b); err != nil {
		logging.Warn().Err(err).Str("subject", subject).Msg("processor: publish")
	}
}
