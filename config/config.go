package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"tripweave/internal/models/plan_models"
)

// Config represents the overall application configuration.
type Config struct {
	Server    ServerConfig                  `yaml:"server"`
	Database  DatabaseConfig                `yaml:"database"`
	Optimizer plan_models.OptimizerSettings `yaml:"optimizer"`

	// CacheTTL is derived from Server.CacheTTLSeconds.
	CacheTTL time.Duration `yaml:"-"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
	AppEnv          string  `yaml:"app_env"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// Load reads the configuration from the given path. A missing file yields
// pure defaults; the POSTGRES_URL env var overrides the configured DSN.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            8080,
			RateLimitPerSec: 20,
			RateLimitBurst:  40,
			CacheTTLSeconds: 300,
			AppEnv:          "prod",
		},
		Optimizer: plan_models.DefaultSettings(),
	}

	if path != "" {
		f, err := os.Open(path)
		if err == nil {
			defer f.Close()
			if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if dsn := os.Getenv("POSTGRES_URL"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		cfg.Server.AppEnv = env
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}
	cfg.CacheTTL = time.Duration(cfg.Server.CacheTTLSeconds) * time.Second

	if err := cfg.Optimizer.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
