// Package config loads the collector's configuration: runtime knobs from
// the environment and the per-table record layout from a YAML file compiled
// alongside the instrumentation program.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// CollectorConfig holds the runtime knobs read from the environment.
type CollectorConfig struct {
	// TableConfigPath points at the YAML table configuration.
	TableConfigPath string `env:"DTRACECOL_TABLE_CONFIG"`
	// PollInterval is the cadence of the poll→drain cycle.
	PollInterval time.Duration `env:"DTRACECOL_POLL_INTERVAL" envDefault:"100ms"`
	// ASID is the address-space id supplied by the identity resolver,
	// used to compose the 128-bit process identity.
	ASID uint32 `env:"DTRACECOL_ASID" envDefault:"0"`
	// PerfBufferBytes is the per-CPU perf buffer size.
	PerfBufferBytes int `env:"DTRACECOL_PERF_BUFFER_BYTES" envDefault:"65536"`
	// MetricsEnabled turns on the OTLP metrics exporter.
	MetricsEnabled bool `env:"DTRACECOL_METRICS_ENABLED" envDefault:"false"`
}

// ParseCollectorConfig parses the collector configuration from environment
// variables.
func ParseCollectorConfig() (*CollectorConfig, error) {
	var cfg CollectorConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse collector config: %w", err)
	}
	if cfg.TableConfigPath == "" {
		return nil, fmt.Errorf("DTRACECOL_TABLE_CONFIG must point at a table configuration file")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %v", cfg.PollInterval)
	}
	return &cfg, nil
}
