package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/thejerf/suture/v4"

	"github.com/ivanzxc/go-rppg-stream/internal/logging"
	"github.com/ivanzxc/go-rppg-stream/internal/metrics"
	"github.com/ivanzxc/go-rppg-stream/internal/stream"
)

// httpService serves HTTP until its context ends, then shuts down
// gracefully.
type httpService struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

func (s *httpService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.server.Addr).Msg("server running")
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("server: shutdown")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

func (s *httpService) String() string { return "http-server" }

// relayService forwards one subject kind from NATS to the hub while it
// runs.
type relayService struct {
	nc       *nats.Conn
	subjects stream.Subjects
	kind     string
	send     func([]byte)
}

func (r *relayService) Serve(ctx context.Context) error {
	sub, err := r.nc.Subscribe(r.subjects.Wildcard(r.kind), func(msg *nats.Msg) {
		metrics.MessagesRelayed.WithLabelValues(r.kind).Inc()
		r.send(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("relay %s: %w", r.kind, err)
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	return ctx.Err()
}

func (r *relayService) String() string { return "relay-" + r.kind }

func newSupervisor() *suture.Supervisor {
	return suture.New("rppg-server", suture.Spec{
		EventHook:        logEvent,
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	})
}

func logEvent(event suture.Event) {
	switch e := event.(type) {
	case suture.EventServiceTerminate:
		logging.Warn().
			Str("service", e.ServiceName).
			Interface("error", e.Err).
			Float64("failures", e.CurrentFailures).
			Bool("restarting", e.Restarting).
			Msg("service terminated")
	case suture.EventServicePanic:
		logging.Error().
			Str("service", e.ServiceName).
			Str("panic", e.PanicMsg).
			Str("stack", e.Stacktrace).
			Bool("restarting", e.Restarting).
			Msg("service panicked")
	case suture.EventBackoff:
		logging.Warn().Str("supervisor", e.Supervisor.Name).Msg("supervisor backing off")
	case suture.EventResume:
		logging.Info().Str("supervisor", e.Supervisor.Name).Msg("supervisor resumed")
	case suture.EventStopTimeout:
		logging.Error().Str("service", e.ServiceName).Msg("service did not stop in time")
	default:
		logging.Info().Str("event", event.String()).Msg("supervisor event")
	}
}
