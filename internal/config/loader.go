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
//  2. file (YAML) if MATCHVOICE_CONFIG is set
//  3. env (prefix MATCHVOICE_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("MATCHVOICE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: MATCHVOICE_ADDR, MATCHVOICE_DB_PATH, ...
	// Keys keep their underscores to match the koanf struct tags.
	envProvider := env.Provider("MATCHVOICE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "matchvoice_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.DBPath == "" {
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	}
	if cfg.AcceptThreshold <= 0 || cfg.AcceptThreshold > 1 {
		return fmt.Errorf("%w: accept_threshold must be in (0, 1]", ErrInvalidConfig)
	}
	if cfg.MaxRetryAttempts < 1 {
		return fmt.Errorf("%w: max_retry_attempts must be at least 1", ErrInvalidConfig)
	}
	if cfg.BaseDelayMS < 1 || cfg.MaxDelayMS < cfg.BaseDelayMS {
		return fmt.Errorf("%w: retry delays must satisfy 0 < base_delay_ms <= max_delay_ms", ErrInvalidConfig)
	}
	if cfg.FOGISBaseURL == "" {
		return fmt.Errorf("%w: fogis_base_url must not be empty", ErrInvalidConfig)
	}
	return nil
}
