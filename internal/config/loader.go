package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/strafelab/filmdec/internal/domain/model"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if FILMDEC_CONFIG is set
//  3. env (prefix FILMDEC_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("FILMDEC_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Env keys like FILMDEC_TOLERANCE_MS map to tolerance_ms; underscores
	// are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("FILMDEC_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "filmdec_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if c.MinNameLength < 1 {
		return fmt.Errorf("%w: min_name_length must be positive", ErrInvalidConfig)
	}
	for _, t := range c.ChunkPreference {
		if _, ok := model.ParseChunkType(t); !ok {
			return fmt.Errorf("%w: unknown chunk type %q in chunk_preference", ErrInvalidConfig, t)
		}
	}
	return nil
}

// Preference maps the configured chunk preference strings to chunk types.
// Call after Load, which has already validated every entry.
func (c *Config) Preference() []model.ChunkType {
	out := make([]model.ChunkType, 0, len(c.ChunkPreference))
	for _, t := range c.ChunkPreference {
		if ct, ok := model.ParseChunkType(t); ok {
			out = append(out, ct)
		}
	}
	return out
}
