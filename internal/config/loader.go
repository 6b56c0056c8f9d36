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
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if EPIFETCH_CONFIG is set
//  3. env (prefix EPIFETCH_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("EPIFETCH_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: EPIFETCH_RECORD_LIMIT, EPIFETCH_LOG_LEVEL, ...
	// Map env keys like EPIFETCH_RECORD_LIMIT -> record_limit (flat keys).
	// Underscores are preserved to match koanf tags on the struct.
	envProvider := env.Provider("EPIFETCH_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "epifetch_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.JHURepoURL == "":
		return fmt.Errorf("%w: jhu_repo_url must not be empty", ErrInvalidConfig)
	case c.JHURawBase == "":
		return fmt.Errorf("%w: jhu_raw_base must not be empty", ErrInvalidConfig)
	case c.RKIQueryURL == "":
		return fmt.Errorf("%w: rki_query_url must not be empty", ErrInvalidConfig)
	case c.ExpectedDistricts <= 0:
		return fmt.Errorf("%w: expected_districts must be positive", ErrInvalidConfig)
	case c.RecordLimit <= 0:
		return fmt.Errorf("%w: record_limit must be positive", ErrInvalidConfig)
	case c.FetchConcurrency <= 0:
		return fmt.Errorf("%w: fetch_concurrency must be positive", ErrInvalidConfig)
	case c.HTTPTimeoutSec <= 0:
		return fmt.Errorf("%w: http_timeout_sec must be positive", ErrInvalidConfig)
	}
	return nil
}
