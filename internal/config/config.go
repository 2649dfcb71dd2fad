package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultJWTSecret is only acceptable in the dev environment.
const DefaultJWTSecret = "dev-secret-change-me"

type Config struct {
	Port           string        `env:"APP_PORT" envDefault:"8080"`
	Env            string        `env:"APP_ENV" envDefault:"dev"`
	DatabaseDriver string        `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseDSN    string        `env:"DATABASE_DSN" envDefault:"host=localhost user=postgres password=postgres dbname=messenger port=5432 sslmode=disable TimeZone=UTC"`
	JWTSecret      string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"15m"`
	SessionGrace   time.Duration `env:"SESSION_GRACE" envDefault:"3h"`
	CORSOrigins    []string      `env:"CORS_ORIGINS" envSeparator:","`

	// Inbound event throttle per user on persistent connections.
	WSEventsPerSecond float64 `env:"WS_EVENTS_PER_SECOND" envDefault:"20"`
	WSEventBurst      int     `env:"WS_EVENT_BURST" envDefault:"40"`
}

// Load reads the configuration from the environment, applying defaults for
// anything unset.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))
	return cfg, nil
}

func Validate(cfg Config) error {
	if cfg.Port == "" {
		return errors.New("config: APP_PORT is empty")
	}
	if cfg.DatabaseDSN == "" {
		return errors.New("config: DATABASE_DSN is empty")
	}
	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unknown DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if cfg.SessionTTL <= 0 {
		return errors.New("config: SESSION_TTL must be positive")
	}
	if cfg.SessionGrace < 0 {
		return errors.New("config: SESSION_GRACE must not be negative")
	}
	if cfg.Env != "dev" && cfg.JWTSecret == DefaultJWTSecret {
		return fmt.Errorf("config: JWT_SECRET must be set outside dev (env=%s)", cfg.Env)
	}
	return nil
}
