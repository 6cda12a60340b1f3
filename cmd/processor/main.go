package main

import (
	"flag"
	"os"
	osSignal "os/signal"

	"github.com/ivanzxc/go-rppg-stream/internal/config"
	"github.com/ivanzxc/go-rppg-stream/internal/logging"
	"github.com/ivanzxc/go-rppg-stream/internal/monitor"
	"github.com/ivanzxc/go-rppg-stream/internal/stream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("processor: config")
	}

	var (
		natsURL = flag.String("nats", cfg.NATS.URL, "NATS url")
		fs      = flag.Float64("fs", cfg.Sampling.RateHz, "sampling rate Hz of the incoming streams")
		prefix  = flag.String("prefix", cfg.NATS.SubjectPrefix, "subject prefix")
	)
	flag.Parse()

	if err := applyFlags(cfg, *natsURL, *fs, *prefix); err != nil {
		logging.Fatal().Err(err).Msg("processor: flags")
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Caller: cfg.Logging.Caller})

	if cfg.NATS.Embedded {
		srv, err := stream.StartEmbedded(cfg.NATS.URL)
		if err != nil {
			logging.Fatal().Err(err).Msg("processor: embedded nats")
		}
		defer srv.Shutdown()
		logging.Info().Str("url", srv.ClientURL()).Msg("embedded nats running")
	}

	nc, err := stream.Connect(cfg.NATS.URL, cfg.NATS.ClientName+"-processor")
	if err != nil {
		logging.Fatal().Err(err).Str("url", cfg.NATS.URL).Msg("processor: nats connect")
	}
	defer nc.Drain()

	subjects := stream.Subjects{Prefix: cfg.NATS.SubjectPrefix}
	registry := monitor.NewRegistry(monitor.Config{
		SampleRate:      cfg.Sampling.RateHz,
		WindowSeconds:   cfg.Sampling.WindowSeconds,
		MaxSeriesPoints: cfg.Sampling.MaxSeriesPoints,
		LowCut:          cfg.Filter.LowCutHz,
		HighCut:         cfg.Filter.HighCutHz,
	})
	pub := stream.NewBreakerPublisher(nc, stream.BreakerSettings{Name: "processor-publish"})
	proc := newProcessor(pub, subjects, registry)

	if err := proc.subscribe(nc); err != nil {
		logging.Fatal().Err(err).Msg("processor: subscribe")
	}

	logging.Info().Float64("fs", cfg.Sampling.RateHz).Str("prefix", cfg.NATS.SubjectPrefix).Msg("processor running")

	ch := make(chan os.Signal, 1)
	osSignal.Notify(ch, os.Interrupt)
	<-ch

	proc.closeAll()
	logging.Info().Msg("processor stopped")
}

// applyFlags writes command-line overrides back into cfg and validates the
// result, so flags are held to the same rules as the config file.
func applyFlags(cfg *config.Config, natsURL string, fs float64, prefix string) error {
	cfg.NATS.URL = natsURL
	cfg.Sampling.RateHz = fs
	cfg.NATS.SubjectPrefix = prefix
	return cfg.Validate()
}
