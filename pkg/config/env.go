package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Env is the runtime configuration read from SETTINGS_* variables.
type Env struct {
	File            string        `env:"SETTINGS_FILE" envDefault:"settings.yml"`
	DB              string        `env:"SETTINGS_DB" envDefault:"settings.db"`
	CacheTTL        time.Duration `env:"SETTINGS_CACHE_TTL" envDefault:"5m"`
	RuleEngine      string        `env:"SETTINGS_RULE_ENGINE" envDefault:"expr"`
	ActivityChannel string        `env:"SETTINGS_ACTIVITY_CHANNEL"`
	LogLevel        string        `env:"SETTINGS_LOG_LEVEL" envDefault:"warn"`
}

// ParseEnv loads Env from the process environment.
func ParseEnv() (Env, error) {
	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// ParseEnvFrom loads Env from vars instead of the process environment.
func ParseEnvFrom(vars map[string]string) (Env, error) {
	var cfg Env
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
