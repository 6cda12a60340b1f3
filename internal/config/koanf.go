package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar overrides the config file location.
const PathEnvVar = "RPPG_CONFIG"

const envPrefix = "RPPG_"

var DefaultPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/rppg/config.yaml",
}

// envMappings maps RPPG_* variables (prefix stripped, lower-cased) to keys.
var envMappings = map[string]string{
	"nats_url":            "nats.url",
	"nats_client_name":    "nats.client_name",
	"nats_subject_prefix": "nats.subject_prefix",
	"nats_embedded":       "nats.embedded",

	"sample_rate":       "sampling.rate_hz",
	"window_seconds":    "sampling.window_seconds",
	"max_series_points": "sampling.max_series_points",

	"low_cut_hz":  "filter.low_cut_hz",
	"high_cut_hz": "filter.high_cut_hz",

	"streams":    "producer.streams",
	"heart_rate": "producer.heart_rate",
	"amplitude":  "producer.amplitude",
	"baseline":   "producer.baseline",
	"noise":      "producer.noise",
	"batch":      "producer.batch",
	"frame_dir":  "producer.frame_dir",

	"http_addr": "server.addr",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

var sliceKeys = []string{"producer.streams"}

// Load reads defaults, the first config file found and the environment, in
// that order of precedence, and validates the result.
func Load() (*Config, error) {
	path, err := findConfigFile()
	if err != nil {
		return nil, err
	}
	return load(path)
}

// LoadFile is Load with an explicit file path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	if err := splitSlices(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the path named by RPPG_CONFIG, which must exist,
// or the first default path present.
func findConfigFile() (string, error) {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("config: %s=%s: %w", PathEnvVar, p, err)
		}
		return p, nil
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

// envKey maps RPPG_NATS_URL to nats.url. Unknown variables are dropped.
func envKey(s string) string {
	return envMappings[strings.ToLower(strings.TrimPrefix(s, envPrefix))]
}

// splitSlices turns comma-separated strings from the environment into
// lists.
func splitSlices(k *koanf.Koanf) error {
	for _, key := range sliceKeys {
		s, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(key, parts); err != nil {
			return fmt.Errorf("config: set %s: %w", key, err)
		}
	}
	return nil
}
