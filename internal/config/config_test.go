package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/creditmeter/internal/config"
)

func TestLoad(t *testing.T) {
	t.Run("should load config with defaults", func(t *testing.T) {
		os.Clearenv()

		cfg := config.Load()

		require.NotNil(t, cfg)

		require.Equal(t, 8080, cfg.Server.Port)
		require.Equal(t, 30, cfg.Server.ReadTimeout)
		require.Equal(t, 30, cfg.Server.WriteTimeout)
		require.Equal(t, 10, cfg.Server.ShutdownTimeout)
		require.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
		require.Equal(t, "info", cfg.Log.Level)
		require.False(t, cfg.Redis.Enabled)
		require.Equal(t, "localhost:6379", cfg.Redis.Addr)
		require.Equal(t, "catalog:models", cfg.Redis.CatalogKey)
		require.Empty(t, cfg.Catalog.File)
		require.True(t, cfg.Catalog.SeedDefaults)
		require.Equal(t, "0.25", cfg.Estimator.TokensPerChar.String())
		require.Equal(t, int64(32), cfg.Estimator.OverheadTokens)
		require.Equal(t, 8, cfg.Billing.BackfillConcurrency)
	})

	t.Run("should load config from environment variables", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "9000")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("REDIS_ENABLED", "true")
		t.Setenv("REDIS_ADDR", "redis:6380")
		t.Setenv("CATALOG_FILE", "/etc/creditmeter/models.hcl")
		t.Setenv("CATALOG_SEED_DEFAULTS", "false")
		t.Setenv("ESTIMATOR_TOKENS_PER_CHAR", "0.3")
		t.Setenv("ESTIMATOR_OVERHEAD_TOKENS", "64")
		t.Setenv("BILLING_BACKFILL_CONCURRENCY", "2")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

		cfg := config.Load()

		require.NotNil(t, cfg)

		require.Equal(t, 9000, cfg.Server.Port)
		require.Equal(t, "debug", cfg.Log.Level)
		require.True(t, cfg.Redis.Enabled)
		require.Equal(t, "redis:6380", cfg.Redis.Addr)
		require.Equal(t, "/etc/creditmeter/models.hcl", cfg.Catalog.File)
		require.False(t, cfg.Catalog.SeedDefaults)
		require.Equal(t, "0.3", cfg.Estimator.TokensPerChar.String())
		require.Equal(t, int64(64), cfg.Estimator.OverheadTokens)
		require.Equal(t, 2, cfg.Billing.BackfillConcurrency)
		require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	})

	t.Run("should panic on malformed values", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "not-a-number")

		require.Panics(t, func() { config.Load() })
	})
}

func TestParseDependenciesConfig(t *testing.T) {
	os.Clearenv()
	cfg := config.Load()

	deps := config.ParseDependenciesConfig(cfg)

	require.Same(t, &cfg.Server, deps.ServerConfig)
	require.Same(t, &cfg.Log, deps.LogConfig)
	require.Same(t, &cfg.Redis, deps.Config)
	require.Same(t, &cfg.Estimator, deps.EstimatorConfig)
	require.Same(t, &cfg.Billing, deps.BillingConfig)
}
