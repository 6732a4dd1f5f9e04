package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// RelayConfig holds configuration for the notification relay.
// This is a minimal config that only includes what the relay needs.
type RelayConfig struct {
	DatabaseURL string `env:"DB_CONNECTION_STRING,required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	MaxAttempts int    `env:"RELAY_MAX_ATTEMPTS" envDefault:"5"`
	HealthPort  string `env:"RELAY_HEALTH_PORT" envDefault:"8090"`
	Mail        MailConfig
}

func LoadRelayConfig() (*RelayConfig, error) {
	_ = godotenv.Load()

	cfg := &RelayConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Mail.validate(); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("RELAY_MAX_ATTEMPTS must be positive")
	}
	return cfg, nil
}

// MigrateConfig is what `api migrate` needs; it skips key and mail validation.
type MigrateConfig struct {
	DatabaseURL string `env:"DB_CONNECTION_STRING,required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Environment string `env:"APP_ENV" envDefault:"development"`
}

func LoadMigrateConfig() (*MigrateConfig, error) {
	_ = godotenv.Load()

	cfg := &MigrateConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}
