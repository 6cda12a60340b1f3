// Package config loads process configuration: built-in defaults, then an
// optional YAML file, then RPPG_* environment variables.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	NATS     NATSConfig     `koanf:"nats"`
	Sampling SamplingConfig `koanf:"sampling"`
	Filter   FilterConfig   `koanf:"filter"`
	Producer ProducerConfig `koanf:"producer"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type NATSConfig struct {
	URL           string `koanf:"url" validate:"required"`
	ClientName    string `koanf:"client_name"`
	SubjectPrefix string `koanf:"subject_prefix" validate:"required,excludesall=*>"`

	// Embedded starts an in-process NATS server on URL's port instead of
	// dialing an external one. Meant for local runs of the processor.
	Embedded bool `koanf:"embedded"`
}

// SamplingConfig describes the intensity series and how much of it each
// stream keeps.
type SamplingConfig struct {
	RateHz          float64 `koanf:"rate_hz" validate:"gt=0"`
	WindowSeconds   float64 `koanf:"window_seconds" validate:"gt=0"`
	MaxSeriesPoints int     `koanf:"max_series_points" validate:"gt=0"`
}

type FilterConfig struct {
	LowCutHz  float64 `koanf:"low_cut_hz" validate:"gt=0"`
	HighCutHz float64 `koanf:"high_cut_hz" validate:"gtfield=LowCutHz"`
}

// ProducerConfig drives the synthetic or image-backed intensity source.
type ProducerConfig struct {
	Streams   []string `koanf:"streams" validate:"min=1,dive,required,excludesall=.*>"`
	HeartRate float64  `koanf:"heart_rate"`
	Amplitude float64  `koanf:"amplitude"`
	Baseline  float64  `koanf:"baseline"`
	Noise     float64  `koanf:"noise"`
	Batch     int      `koanf:"batch" validate:"gt=0"`
	FrameDir  string   `koanf:"frame_dir"`
}

type ServerConfig struct {
	Addr string `koanf:"addr" validate:"required"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

func defaultConfig() *Config {
	return &Config{
		NATS: NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			ClientName:    "go-rppg-stream",
			SubjectPrefix: "rppg",
		},
		Sampling: SamplingConfig{
			RateHz:          30,
			WindowSeconds:   120,
			MaxSeriesPoints: 300,
		},
		Filter: FilterConfig{
			LowCutHz:  0.75,
			HighCutHz: 3.0,
		},
		Producer: ProducerConfig{
			Streams:   []string{"front", "back"},
			HeartRate: 72,
			Amplitude: 4,
			Baseline:  128,
			Noise:     0.5,
			Batch:     10,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// validatorInstance names fields by their koanf keys so errors read like
// the config file.
func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks the struct tags and reports every failing key.
func (c *Config) Validate() error {
	err := validatorInstance().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	errs := make([]error, len(fieldErrs))
	for i, fe := range fieldErrs {
		errs[i] = fieldError(fe)
	}
	return errors.Join(errs...)
}

func fieldError(fe validator.FieldError) error {
	key := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", key)
	case "min":
		return fmt.Errorf("%s needs at least %s entries", key, fe.Param())
	case "gtfield":
		return fmt.Errorf("%s must be above %s, got %v", key, fe.Param(), fe.Value())
	case "oneof":
		return fmt.Errorf("%s must be one of %s, got %v", key, fe.Param(), fe.Value())
	default:
		return fmt.Errorf("%s must be %s %s, got %v", key, fe.Tag(), fe.Param(), fe.Value())
	}
}
