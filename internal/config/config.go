// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers .env, defaults, an optional YAML file and the environment.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the entity store backend: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// StorePath is the SQLite database file used when StoreDriver is sqlite.
	StorePath string `koanf:"store_path"`

	// SeedOnStart fills an empty store with fixture data at startup.
	SeedOnStart bool `koanf:"seed_on_start"`

	// SeedCandidates is the number of generated candidates when seeding.
	SeedCandidates int `koanf:"seed_candidates"`

	// LatencyMinMS and LatencyMaxMS bound the injected per-call delay.
	LatencyMinMS int `koanf:"latency_min_ms"`
	LatencyMaxMS int `koanf:"latency_max_ms"`

	// FailureRate is the default probability that a call fails.
	FailureRate float64 `koanf:"failure_rate"`

	// ReorderFailureRate is the failure probability for job reordering.
	ReorderFailureRate float64 `koanf:"reorder_failure_rate"`

	// FaultSeed seeds the fault policy RNG; 0 means time-based.
	FaultSeed int64 `koanf:"fault_seed"`

	// QueueSize bounds the in-memory call queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of call workers.
	WorkerCount int `koanf:"worker_count"`

	// DefaultPageLimit applies when a list request omits limit.
	DefaultPageLimit int `koanf:"default_page_limit"`

	// MaxPageLimit caps the limit of list requests.
	MaxPageLimit int `koanf:"max_page_limit"`

	// IdempotencyCacheSize bounds the remembered Idempotency-Key values.
	IdempotencyCacheSize int `koanf:"idempotency_cache_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		StoreDriver:          StoreMemory,
		StorePath:            "talentflow.db",
		SeedOnStart:          true,
		SeedCandidates:       1000,
		LatencyMinMS:         200,
		LatencyMaxMS:         1200,
		FailureRate:          0.075,
		ReorderFailureRate:   0.10,
		QueueSize:            4096,
		WorkerCount:          runtime.NumCPU() * 16,
		DefaultPageLimit:     10,
		MaxPageLimit:         100,
		IdempotencyCacheSize: 10_000,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.StoreDriver != StoreMemory && c.StoreDriver != StoreSQLite:
		return fmt.Errorf("%w: store_driver must be %q or %q, got %q", ErrInvalidConfig, StoreMemory, StoreSQLite, c.StoreDriver)
	case c.StoreDriver == StoreSQLite && c.StorePath == "":
		return fmt.Errorf("%w: store_path is required for the sqlite driver", ErrInvalidConfig)
	case c.LatencyMinMS < 0 || c.LatencyMaxMS < c.LatencyMinMS:
		return fmt.Errorf("%w: latency range [%d, %d] is invalid", ErrInvalidConfig, c.LatencyMinMS, c.LatencyMaxMS)
	case c.FailureRate < 0 || c.FailureRate > 1:
		return fmt.Errorf("%w: failure_rate must be within [0, 1]", ErrInvalidConfig)
	case c.ReorderFailureRate < 0 || c.ReorderFailureRate > 1:
		return fmt.Errorf("%w: reorder_failure_rate must be within [0, 1]", ErrInvalidConfig)
	case c.QueueSize < 1 || c.WorkerCount < 1:
		return fmt.Errorf("%w: queue_size and worker_count must be positive", ErrInvalidConfig)
	case c.DefaultPageLimit < 1 || c.MaxPageLimit < c.DefaultPageLimit:
		return fmt.Errorf("%w: page limits [%d, %d] are invalid", ErrInvalidConfig, c.DefaultPageLimit, c.MaxPageLimit)
	}
	return nil
}
