// Package config loads server configuration from environment variables.
//
// The struct tags come from caarlos0/env: each field names its variable and
// a default, so the whole configuration is declared in one place instead of
// scattered os.Getenv calls with ad-hoc fallbacks.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config contains all server configuration.
//
// JWTSecret has no default on purpose — a baked-in signing secret would
// mean every deployment that forgot to set one shares a key. main refuses
// to start without it.
type Config struct {
	Port      int    `env:"PORT" envDefault:"8080"`
	DBPath    string `env:"DB_PATH" envDefault:"data/snippetbin.db"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  int    `env:"LOG_LEVEL" envDefault:"0"` // slog levels: -4 debug, 0 info, 4 warn, 8 error
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}
	return cfg, nil
}
