package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:8084", cfg.Address())
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "data/order_payments_dataset.csv", cfg.Dataset.PaymentsFile)
	assert.Equal(t, "data/sellers_dataset.csv", cfg.Dataset.SellersFile)
	assert.Equal(t, "data/geolocation_dataset.csv", cfg.Dataset.GeoFile)
	assert.Equal(t, 10, cfg.Dataset.TopCities)
	assert.Equal(t, 5000, cfg.Dataset.SampleCap)
	assert.Equal(t, uint64(42), cfg.Dataset.SampleSeed)
	assert.Equal(t, 50, cfg.Dataset.HexbinGridSize)
	assert.Equal(t, 1, cfg.Dataset.HexbinMinCount)
	assert.Equal(t, 40, cfg.Dataset.DensityGridSize)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, []string{"127.0.0.1"}, cfg.Security.TrustedProxies)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("DATASET_PAYMENTS_FILE", "/srv/payments.xlsx")
	t.Setenv("DATASET_SAMPLE_SEED", "7")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SECURITY_RATE_LIMIT_RPS", "5")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "/srv/payments.xlsx", cfg.Dataset.PaymentsFile)
	assert.Equal(t, uint64(7), cfg.Dataset.SampleSeed)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "text", cfg.Logger.Format)
	assert.Equal(t, 5, cfg.Security.RateLimitRPS)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port out of range", "SERVER_PORT", "70000"},
		{"unparseable port", "SERVER_PORT", "eighty"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad log format", "LOG_FORMAT", "xml"},
		{"zero top cities", "DATASET_TOP_CITIES", "0"},
		{"zero sample cap", "DATASET_SAMPLE_CAP", "0"},
		{"negative memo", "DATASET_MEMO_SIZE", "-1"},
		{"zero hexbin grid", "DATASET_HEXBIN_GRID_SIZE", "0"},
		{"zero hexbin min count", "DATASET_HEXBIN_MIN_COUNT", "0"},
		{"one-cell density grid", "DATASET_DENSITY_GRID_SIZE", "1"},
		{"zero rps", "SECURITY_RATE_LIMIT_RPS", "0"},
		{"relative metrics path", "METRICS_PATH", "metrics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoadWithDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "DATASET_TOP_CITIES=7\nDATASET_GEO_FILE=/srv/geo.xlsx\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() { os.Unsetenv("DATASET_TOP_CITIES") })
	t.Setenv("DATASET_GEO_FILE", "/env/geo.csv")

	cfg, err := LoadWithDotEnv(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Dataset.TopCities)
	assert.Equal(t, "/env/geo.csv", cfg.Dataset.GeoFile, "environment wins over the file")
}

func TestLoadWithDotEnv_MissingFile(t *testing.T) {
	cfg, err := LoadWithDotEnv(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Dataset.TopCities)
}
