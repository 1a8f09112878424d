// Package config loads runtime configuration from the environment and the
// optional YAML data files (cost catalog, glossary).
package config

import (
	"fmt"

	"github.com/joeshaw/envdecode"
)

// Config is the full runtime configuration, populated from environment
// variables with sensible defaults for local use.
type Config struct {
	HTTPAddr   string `env:"MEDFIN_HTTP_ADDR,default=:8080"`
	BackendURL string `env:"MEDFIN_BACKEND_URL,default=http://localhost:8000/api"`
	LogLevel   string `env:"LOG_LEVEL,default=info"`

	// Storage selects the persistence backend: memory, file, redis or
	// postgres. Family and savings collections share the backend but use
	// distinct keys.
	Storage     string `env:"MEDFIN_STORAGE,default=file"`
	DataDir     string `env:"MEDFIN_DATA_DIR,default=./data"`
	RedisAddr   string `env:"MEDFIN_REDIS_ADDR,default=localhost:6379"`
	RedisDB     int    `env:"MEDFIN_REDIS_DB,default=0"`
	PostgresDSN string `env:"MEDFIN_POSTGRES_DSN,default="`

	ReminderSchedule string `env:"MEDFIN_REMINDER_SCHEDULE,default=@daily"`
	CostCatalogPath  string `env:"MEDFIN_COST_CATALOG,default="`
	GlossaryPath     string `env:"MEDFIN_GLOSSARY,default="`

	RateLimitPerSecond int `env:"MEDFIN_RATE_LIMIT_RPS,default=20"`
	RateLimitBurst     int `env:"MEDFIN_RATE_LIMIT_BURST,default=40"`
}

// FromEnv decodes configuration from the environment.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case "memory", "file", "redis", "postgres":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage)
	}
	if c.Storage == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("MEDFIN_POSTGRES_DSN is required for postgres storage")
	}
	return nil
}
