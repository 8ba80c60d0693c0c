// Package config loads host configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stridesaber/event"
	"github.com/stridesaber/event/logging"
	"github.com/stridesaber/event/ratelimit"
)

// Prefix is prepended to every variable name.
const Prefix = "STRIDESABER_"

// Config is the host configuration.
type Config struct {
	GameName string `env:"GAME_NAME" envDefault:"StrideSaber"`

	LogLevel  event.Level    `env:"LOG_LEVEL"  envDefault:"verbose"`
	LogFormat logging.Format `env:"LOG_FORMAT" envDefault:"text"`
	LogIndent bool           `env:"LOG_INDENT" envDefault:"true"`
	LogSource bool           `env:"LOG_SOURCE" envDefault:"false"`

	// LogRate limits firing records per event id per second. Zero disables
	// the limit.
	LogRate  float64 `env:"LOG_RATE"  envDefault:"0"`
	LogBurst int     `env:"LOG_BURST" envDefault:"10"`

	Tracing bool `env:"TRACING" envDefault:"true"`
	Metrics bool `env:"METRICS" envDefault:"true"`

	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"0s"`

	// MonitorCapacity bounds the in-memory dispatch monitor. Zero disables
	// monitoring.
	MonitorCapacity int `env:"MONITOR_CAPACITY" envDefault:"1024"`

	// PoisonThreshold unregisters a handler after this many consecutive
	// failures. Zero disables quarantine.
	PoisonThreshold  int           `env:"POISON_THRESHOLD"  envDefault:"0"`
	PoisonQuarantine time.Duration `env:"POISON_QUARANTINE" envDefault:"1h"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	return LoadWith(env.Options{})
}

// LoadWith reads the configuration with extra parser options, typically an
// Environment map in tests.
func LoadWith(opts env.Options) (Config, error) {
	opts.Prefix = Prefix
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the parser cannot.
func (c Config) Validate() error {
	if c.LogRate < 0 {
		return fmt.Errorf("%sLOG_RATE must not be negative", Prefix)
	}
	if c.LogRate > 0 && c.LogBurst < 1 {
		return fmt.Errorf("%sLOG_BURST must be at least 1", Prefix)
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("%sSWEEP_INTERVAL must not be negative", Prefix)
	}
	if c.MonitorCapacity < 0 {
		return fmt.Errorf("%sMONITOR_CAPACITY must not be negative", Prefix)
	}
	if c.PoisonThreshold < 0 {
		return fmt.Errorf("%sPOISON_THRESHOLD must not be negative", Prefix)
	}
	return nil
}

// Logging returns the logging configuration.
func (c Config) Logging() logging.Config {
	return logging.Config{
		Level:     c.LogLevel,
		Format:    c.LogFormat,
		Indent:    c.LogIndent,
		AddSource: c.LogSource,
	}
}

// ManagerOptions returns the event manager options.
func (c Config) ManagerOptions() []event.Option {
	opts := []event.Option{
		event.WithName(c.GameName),
		event.WithTracing(c.Tracing),
		event.WithMetrics(c.Metrics),
		event.WithSweepInterval(c.SweepInterval),
	}
	if c.LogRate > 0 {
		opts = append(opts, event.WithLogLimiter(c.LogLimiter()))
	}
	return opts
}

// LogLimiter returns a per event id limiter for firing records. A zero
// LogRate yields a limiter that allows everything until retuned with
// SetLimit.
func (c Config) LogLimiter() *ratelimit.Keyed {
	return ratelimit.NewKeyed(c.LogRate, c.LogBurst)
}
