package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Load reads an optional YAML file at CONFIG_PATH (default ./config.yaml),
// then environment variables, then env-default tags. An explicit
// CONFIG_PATH that does not exist is an error.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks rules the struct tags cannot express.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}

	switch c.Storage.Driver {
	case StorageMongo:
		if c.Mongo.URI == "" {
			return errors.New("mongo.uri is required when storage.driver is mongo")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("storage.driver must be %q or %q (got %q)", StorageMongo, StorageMemory, c.Storage.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range (got %d)", c.Server.Port)
	}
	if c.RateLimit.IssuesPerWindow <= 0 {
		return fmt.Errorf("rate_limit.issues_per_window must be > 0 (got %d)", c.RateLimit.IssuesPerWindow)
	}
	if c.RateLimit.Window <= 0 {
		return errors.New("rate_limit.window must be positive")
	}
	if len(c.CORS.Origins()) == 0 {
		return errors.New("cors.allowed_origins must list at least one origin")
	}
	if c.ImageKit.TokenTTL <= 0 || c.ImageKit.TokenTTL > time.Hour {
		return fmt.Errorf("imagekit.token_ttl must be within (0, 1h] (got %s)", c.ImageKit.TokenTTL)
	}
	return nil
}
