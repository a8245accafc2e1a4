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
//  2. file (YAML) if ROYALE_CONFIG is set
//  3. env (prefix ROYALE_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("ROYALE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: ROYALE_API_BASE, ROYALE_TICK_INTERVAL_MS, ...
	// Keys map to the flat koanf tags on the struct; underscores preserved.
	envProvider := env.Provider("ROYALE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "royale_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	switch {
	case cfg.APIBase == "":
		return fmt.Errorf("%w: api_base must not be empty", ErrInvalidConfig)
	case cfg.OpsAddr == "":
		return fmt.Errorf("%w: ops_addr must not be empty", ErrInvalidConfig)
	case cfg.TickIntervalMS <= 0:
		return fmt.Errorf("%w: tick_interval_ms must be positive", ErrInvalidConfig)
	case cfg.TickDeadlineMS <= 0:
		return fmt.Errorf("%w: tick_deadline_ms must be positive", ErrInvalidConfig)
	case cfg.WinProbEngage <= 0 || cfg.WinProbEngage > 1:
		return fmt.Errorf("%w: win_prob_engage must be in (0,1]", ErrInvalidConfig)
	case cfg.EscapeProbMax <= 0 || cfg.EscapeProbMax > 1:
		return fmt.Errorf("%w: escape_prob_max must be in (0,1]", ErrInvalidConfig)
	case cfg.HealthCritical > cfg.HealthNormal:
		return fmt.Errorf("%w: health_critical must not exceed health_normal", ErrInvalidConfig)
	}
	return nil
}
