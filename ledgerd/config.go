package main

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is read from the environment at startup
type Config struct {
	VsockPort  uint32 `env:"LEDGER_VSOCK_PORT" env-default:"5000"`
	MaxWorkers int    `env:"LEDGER_MAX_WORKERS" env-required:"true"`

	// AuctionDuration is resolved against the clock at startup unless Deadline is set
	AuctionDuration time.Duration `env:"LEDGER_AUCTION_DURATION" env-default:"720h"`
	Deadline        string        `env:"LEDGER_DEADLINE"` // RFC3339

	// HTTPAddr enables the HTTP bridge when non-empty, e.g. ":8080"
	HTTPAddr    string        `env:"LEDGER_HTTP_ADDR"`
	ReadTimeout time.Duration `env:"LEDGER_READ_TIMEOUT" env-default:"30s"`
}

// LoadConfig reads and validates the configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}

	if cfg.MaxWorkers <= 0 {
		return nil, fmt.Errorf("invalid value for LEDGER_MAX_WORKERS: %d (must be positive)", cfg.MaxWorkers)
	}
	if cfg.Deadline == "" && cfg.AuctionDuration <= 0 {
		return nil, fmt.Errorf("invalid value for LEDGER_AUCTION_DURATION: %s (must be positive)", cfg.AuctionDuration)
	}
	if cfg.ReadTimeout <= 0 {
		return nil, fmt.Errorf("invalid value for LEDGER_READ_TIMEOUT: %s (must be positive)", cfg.ReadTimeout)
	}

	return cfg, nil
}

// ResolveDeadline returns the absolute deadline, using now when only a duration is configured
func (c *Config) ResolveDeadline(now time.Time) (time.Time, error) {
	if c.Deadline == "" {
		return now.Add(c.AuctionDuration), nil
	}

	deadline, err := time.Parse(time.RFC3339, c.Deadline)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid value for LEDGER_DEADLINE: %s (must be RFC3339): %w", c.Deadline, err)
	}
	// Anchor to now so the deadline carries now's monotonic reading
	return now.Add(deadline.Sub(now)), nil
}
