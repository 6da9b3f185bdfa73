// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all server settings.
type Config struct {
	Addr     string        `env:"ADDR" envDefault:":8080"`
	DBPath   string        `env:"DB_PATH" envDefault:"./data/rupaya.db"`
	LogLevel string        `env:"LOG_LEVEL" envDefault:"info"`
	JWTKey   string        `env:"JWT_SECRET,required"`
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}
