package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	osSignal "os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ivanzxc/go-rppg-stream/internal/config"
	"github.com/ivanzxc/go-rppg-stream/internal/logging"
	"github.com/ivanzxc/go-rppg-stream/internal/stream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("server: config")
	}

	var (
		natsURL = flag.String("nats", cfg.NATS.URL, "NATS url")
		addr    = flag.String("addr", cfg.Server.Addr, "http address")
		web     = flag.String("web", "./web", "static files directory")
	)
	flag.Parse()

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Caller: cfg.Logging.Caller})

	nc, err := stream.Connect(*natsURL, cfg.NATS.ClientName+"-server")
	if err != nil {
		logging.Fatal().Err(err).Str("url", *natsURL).Msg("server: nats connect")
	}
	defer nc.Drain()

	hub := newHub()
	subjects := stream.Subjects{Prefix: cfg.NATS.SubjectPrefix}

	sup := newSupervisor()
	sup.Add(&httpService{
		server: &http.Server{
			Addr:              *addr,
			Handler:           routes(hub, *web),
			ReadHeaderTimeout: 5 * time.Second,
		},
		shutdownTimeout: 5 * time.Second,
	})
	// intensity stays binary, the rest is JSON
	sup.Add(&relayService{nc: nc, subjects: subjects, kind: stream.KindIntensity, send: hub.broadcastBinary})
	sup.Add(&relayService{nc: nc, subjects: subjects, kind: stream.KindParams, send: hub.broadcastText})
	sup.Add(&relayService{nc: nc, subjects: subjects, kind: stream.KindSummary, send: hub.broadcastText})

	ctx, stop := osSignal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := sup.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("server: supervisor")
	}
	logging.Info().Msg("server stopped")
}

func routes(hub *Hub, webDir string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(webDir)))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", hub.serveWS)
	return mux
}
