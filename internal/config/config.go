// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file, and env vars.
// - External errors are wrapped via this package's sentinel errors.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr is the listen address for the Prometheus /metrics
	// endpoint. Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`

	// FilmDir is the directory holding downloaded film blobs, one
	// subdirectory per match with a manifest.json inside.
	FilmDir string `koanf:"film_dir"`

	// OutDir receives one JSON result file per decoded match.
	OutDir string `koanf:"out_dir"`

	// WorkerCount bounds concurrent match decodes, which bounds memory:
	// each in-flight match holds a decompressed payload of up to a few MB.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory match-job queue.
	QueueSize int `koanf:"queue_size"`

	// ToleranceMS is the kill/death pairing tolerance in milliseconds.
	ToleranceMS uint32 `koanf:"tolerance_ms"`

	// MinNameLength is the shortest display name the sanitizer accepts.
	MinNameLength int `koanf:"min_name_length"`

	// NameCacheSize sets the sanitizer's memoization cache size.
	NameCacheSize int `koanf:"name_cache_size"`

	// ChunkPreference orders chunk types for event decode, first match
	// wins. Defaults to summary before gameplay.
	ChunkPreference []string `koanf:"chunk_preference"`

	// MaxInflateBytes caps a single decompressed chunk payload.
	MaxInflateBytes int64 `koanf:"max_inflate_bytes"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		MetricsAddr:     ":9090",
		FilmDir:         "films",
		OutDir:          "decoded",
		WorkerCount:     runtime.NumCPU(),
		QueueSize:       1024,
		ToleranceMS:     5,
		MinNameLength:   3,
		NameCacheSize:   4096,
		ChunkPreference: []string{"summary", "gameplay"},
		MaxInflateBytes: 64 << 20,
	}
}
