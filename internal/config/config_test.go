package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults with memory store", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("STORE_DRIVER", "memory")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, "8080", cfg.ServerPort)
		require.Equal(t, 15*time.Minute, cfg.JWTAccessTTL)
		require.Equal(t, 24*time.Hour, cfg.JWTRefreshTTL)
		require.Equal(t, []string{"*"}, cfg.CORSOrigins)
		require.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	})

	t.Run("requires jwt secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		t.Setenv("STORE_DRIVER", "memory")

		_, err := Load()
		require.ErrorContains(t, err, "JWT_SECRET")
	})

	t.Run("postgres requires database url", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("STORE_DRIVER", "postgres")
		t.Setenv("DATABASE_URL", "")

		_, err := Load()
		require.ErrorContains(t, err, "DATABASE_URL")
	})

	t.Run("falls back on malformed values", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("STORE_DRIVER", "memory")
		t.Setenv("RATE_LIMIT_RPM", "lots")
		t.Setenv("JWT_ACCESS_TTL", "soon")
		t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, 100, cfg.RateLimitRPM)
		require.Equal(t, 15*time.Minute, cfg.JWTAccessTTL)
		require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	})
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	base := func() Config {
		return Config{
			ServerPort:     "8080",
			RequestTimeout: time.Second,
			StoreDriver:    StoreDriverMemory,
			JWTSecret:      "s",
			JWTAccessTTL:   time.Minute,
			JWTRefreshTTL:  time.Hour,
			BcryptCost:     10,
			LogFormat:      "json",
		}
	}

	cfg := base()
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.JWTRefreshTTL = time.Second
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.BcryptCost = 2
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.StoreDriver = "sqlite"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.LogFormat = "xml"
	require.Error(t, cfg.Validate())
}
