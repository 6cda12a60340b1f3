package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "rppg", cfg.NATS.SubjectPrefix)
	assert.Equal(t, 30.0, cfg.Sampling.RateHz)
	assert.Equal(t, 120.0, cfg.Sampling.WindowSeconds)
	assert.Equal(t, 300, cfg.Sampling.MaxSeriesPoints)
	assert.Equal(t, 0.75, cfg.Filter.LowCutHz)
	assert.Equal(t, 3.0, cfg.Filter.HighCutHz)
	assert.Equal(t, []string{"front", "back"}, cfg.Producer.Streams)
}

func TestLoadFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
nats:
  url: nats://broker:4222
sampling:
  rate_hz: 25
producer:
  streams: [left]
logging:
  format: console
`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "nats://broker:4222", cfg.NATS.URL)
	assert.Equal(t, 25.0, cfg.Sampling.RateHz)
	assert.Equal(t, []string{"left"}, cfg.Producer.Streams)
	assert.Equal(t, "console", cfg.Logging.Format)
	// untouched keys keep their defaults
	assert.Equal(t, 120.0, cfg.Sampling.WindowSeconds)
}

func TestLoadFile_Env(t *testing.T) {
	t.Setenv("RPPG_NATS_URL", "nats://env:4222")
	t.Setenv("RPPG_SAMPLE_RATE", "60")
	t.Setenv("RPPG_STREAMS", "front, back ,side")
	t.Setenv("RPPG_UNKNOWN_THING", "ignored")

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, "nats://env:4222", cfg.NATS.URL)
	assert.Equal(t, 60.0, cfg.Sampling.RateHz)
	assert.Equal(t, []string{"front", "back", "side"}, cfg.Producer.Streams)
}

func TestLoadFile_Invalid(t *testing.T) {
	t.Setenv("RPPG_LOW_CUT_HZ", "4")

	_, err := LoadFile("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filter.high_cut_hz")
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Sampling.RateHz = 0
	cfg.Producer.Streams = nil
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sampling.rate_hz")
	assert.Contains(t, err.Error(), "producer.streams")
}

func TestValidate_Fields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing url", func(c *Config) { c.NATS.URL = "" }, "nats.url is required"},
		{"wildcard prefix", func(c *Config) { c.NATS.SubjectPrefix = "rppg.>" }, "nats.subject_prefix"},
		{"dotted stream", func(c *Config) { c.Producer.Streams = []string{"front.left"} }, "producer.streams[0]"},
		{"empty stream", func(c *Config) { c.Producer.Streams = []string{""} }, "producer.streams[0] is required"},
		{"zero batch", func(c *Config) { c.Producer.Batch = 0 }, "producer.batch"},
		{"inverted band", func(c *Config) { c.Filter.HighCutHz = 0.5 }, "filter.high_cut_hz must be above"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile_Embedded(t *testing.T) {
	t.Setenv("RPPG_NATS_EMBEDDED", "true")

	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.True(t, cfg.NATS.Embedded)
}

func TestLoad_ExplicitPath(t *testing.T) {
	t.Run("missing file is an error", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "nope.yaml")
		t.Setenv(PathEnvVar, missing)

		_, err := Load()
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
		assert.Contains(t, err.Error(), missing)
	})

	t.Run("existing file is used", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rppg.yaml")
		require.NoError(t, os.WriteFile(path, []byte("sampling:\n  rate_hz: 50\n"), 0o600))
		t.Setenv(PathEnvVar, path)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 50.0, cfg.Sampling.RateHz)
	})
}
