package main

import (
	"context"
	"flag"
	"os"
	osSignal "os/signal"

	"golang.org/x/time/rate"

	"github.com/ivanzxc/go-rppg-stream/internal/config"
	"github.com/ivanzxc/go-rppg-stream/internal/intensity"
	"github.com/ivanzxc/go-rppg-stream/internal/logging"
	"github.com/ivanzxc/go-rppg-stream/internal/signal"
	"github.com/ivanzxc/go-rppg-stream/internal/stream"
)

// source yields one intensity sample per frame.
type source interface {
	Next() (float64, error)
}

type simSource struct{ sim *signal.PPGSim }

func (s simSource) Next() (float64, error) { return s.sim.Next(), nil }

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("producer: config")
	}

	var (
		natsURL = flag.String("nats", cfg.NATS.URL, "NATS url")
		fs      = flag.Float64("fs", cfg.Sampling.RateHz, "sampling rate Hz")
		hr      = flag.Float64("hr", cfg.Producer.HeartRate, "simulated heart rate bpm")
		batch   = flag.Int("batch", cfg.Producer.Batch, "samples per message")
		frames  = flag.String("frames", cfg.Producer.FrameDir, "directory of frames to replay instead of the simulator")
	)
	flag.Parse()

	cfg.NATS.URL = *natsURL
	cfg.Sampling.RateHz = *fs
	cfg.Producer.Batch = *batch
	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("producer: flags")
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Caller: cfg.Logging.Caller})

	nc, err := stream.Connect(*natsURL, cfg.NATS.ClientName+"-producer")
	if err != nil {
		logging.Fatal().Err(err).Str("url", *natsURL).Msg("producer: nats connect")
	}
	defer nc.Drain()

	subjects := stream.Subjects{Prefix: cfg.NATS.SubjectPrefix}

	sources := make(map[string]source, len(cfg.Producer.Streams))
	for i, name := range cfg.Producer.Streams {
		if *frames != "" {
			src, err := intensity.NewDirSource(*frames, intensity.Luma{})
			if err != nil {
				logging.Fatal().Err(err).Msg("producer: frame source")
			}
			sources[name] = src
			continue
		}
		// each stream gets its own seed and a slightly different rate
		sources[name] = simSource{signal.NewPPGSim(*fs, *hr+float64(i)*6,
			signal.WithBaseline(cfg.Producer.Baseline),
			signal.WithAmplitude(cfg.Producer.Amplitude),
			signal.WithNoise(cfg.Producer.Noise),
			signal.WithSeed(uint64(i+1)),
		)}
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	osSignal.Notify(ch, os.Interrupt)

	go func() {
		<-ch
		cancel()
	}()

	// one frame per stream every 1/fs seconds
	limiter := rate.NewLimiter(rate.Limit(*fs), 1)

	buffers := make(map[string][]float64, len(sources))
	logging.Info().Strs("streams", cfg.Producer.Streams).Float64("fs", *fs).Msg("producer running")

	for {
		if err := limiter.Wait(ctx); err != nil {
			flush(nc, subjects, cfg.Producer.Streams, buffers)
			logging.Info().Msg("producer: stopping")
			return
		}

		for name, src := range sources {
			v, err := src.Next()
			if err != nil {
				logging.Warn().Err(err).Str("stream", name).Msg("producer: frame skipped")
				continue
			}
			buffers[name] = append(buffers[name], v)

			if len(buffers[name]) >= *batch {
				publish(nc, subjects.Intensity(name), buffers[name])
				buffers[name] = buffers[name][:0]
			}
		}
	}
}

func publish(pub stream.Publisher, subject string, samples []float64) {
	if err := pub.Publish(subject, stream.EncodeSamples(samples)); err != nil {
		logging.Warn().Err(err).Str("subject", subject).Msg("producer: publish")
	}
}

// flush sends partial batches left over at shutdown, then ends the session
// of every stream, including those that never filled a buffer.
func flush(pub stream.Publisher, subjects stream.Subjects, names []string, buffers map[string][]float64) {
	for _, name := range names {
		if buf := buffers[name]; len(buf) > 0 {
			publish(pub, subjects.Intensity(name), buf)
		}
		if err := pub.Publish(subjects.Reset(name), nil); err != nil {
			logging.Warn().Err(err).Str("stream", name).Msg("producer: reset")
		}
	}
}
