package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "APP_ENV", "DATABASE_DRIVER", "DATABASE_DSN", "JWT_SECRET", "SESSION_TTL", "SESSION_GRACE", "CORS_ORIGINS"} {
		// Setenv restores the previous value on cleanup.
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load()
	require.NoError(t, err)

	if cfg.Port != "8080" {
		t.Errorf("Load() Port = %v, want 8080", cfg.Port)
	}
	if cfg.Env != "dev" {
		t.Errorf("Load() Env = %v, want dev", cfg.Env)
	}
	if cfg.DatabaseDriver != "postgres" {
		t.Errorf("Load() DatabaseDriver = %v, want postgres", cfg.DatabaseDriver)
	}
	if cfg.SessionTTL != 15*time.Minute {
		t.Errorf("Load() SessionTTL = %v, want 15m", cfg.SessionTTL)
	}
	if cfg.SessionGrace != 3*time.Hour {
		t.Errorf("Load() SessionGrace = %v, want 3h", cfg.SessionGrace)
	}
	if cfg.WSEventBurst != 40 {
		t.Errorf("Load() WSEventBurst = %v, want 40", cfg.WSEventBurst)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("DATABASE_DRIVER", " SQLite ")
	t.Setenv("DATABASE_DSN", "file:test.db")
	t.Setenv("JWT_SECRET", "my-secret")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("SESSION_GRACE", "10m")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "file:test.db", cfg.DatabaseDSN)
	assert.Equal(t, "my-secret", cfg.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 10*time.Minute, cfg.SessionGrace)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("SESSION_TTL", "fifteen")

	_, err := Load()
	if err == nil {
		t.Error("Load() should fail on an unparseable SESSION_TTL")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		Port:           "8080",
		DatabaseDriver: "postgres",
		DatabaseDSN:    "postgres://localhost/test",
		JWTSecret:      DefaultJWTSecret,
		Env:            "dev",
		SessionTTL:     15 * time.Minute,
		SessionGrace:   time.Hour,
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid dev config", func(*Config) {}, false},
		{"valid prod config", func(c *Config) { c.Env = "prod"; c.JWTSecret = "production-secret-key" }, false},
		{"sqlite driver", func(c *Config) { c.DatabaseDriver = "sqlite" }, false},
		{"zero grace", func(c *Config) { c.SessionGrace = 0 }, false},
		{"empty port", func(c *Config) { c.Port = "" }, true},
		{"empty dsn", func(c *Config) { c.DatabaseDSN = "" }, true},
		{"unknown driver", func(c *Config) { c.DatabaseDriver = "mongo" }, true},
		{"zero ttl", func(c *Config) { c.SessionTTL = 0 }, true},
		{"negative grace", func(c *Config) { c.SessionGrace = -time.Second }, true},
		{"default secret in prod", func(c *Config) { c.Env = "prod" }, true},
		{"default secret in test env", func(c *Config) { c.Env = "test" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
