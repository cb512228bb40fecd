package config

import (
	"errors"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppAddr     string `envconfig:"APP_ADDR" default:":8080"`
	DatabaseDSN string `envconfig:"DATABASE_DSN" default:"pharmacy.db"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"text"`

	AuthSecret    string `envconfig:"AUTH_SECRET" default:"dev_secret"`
	AdminUser     string `envconfig:"ADMIN_USER" default:"admin"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" required:"true"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.AdminPassword == "" {
		return nil, errors.New("admin password must be provided")
	}
	return &cfg, nil
}
