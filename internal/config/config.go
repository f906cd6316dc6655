// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers a YAML file and LIFELINE_* environment variables on top.
// - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory ingestion queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of ingestion workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the record id deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxRecords caps the event store; 0 means unbounded.
	MaxRecords int `koanf:"max_records"`

	// MaxDomainPoints caps the x-domain of POST /parametric.
	MaxDomainPoints int `koanf:"max_domain_points"`

	// MaxChartItems caps the number of series in POST /chart.
	MaxChartItems int `koanf:"max_chart_items"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		QueueSize:       10_000,
		WorkerCount:     runtime.NumCPU(),
		DedupeSize:      100_000,
		MaxRecords:      0,
		MaxDomainPoints: 10_000,
		MaxChartItems:   16,
	}
}
