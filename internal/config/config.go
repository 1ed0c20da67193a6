package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DotEnvFile is read before the environment when it exists. Variables already
// set in the environment take precedence over the file.
const DotEnvFile = ".env"

type Config struct {
	Server   ServerConfig
	Dataset  DatasetConfig
	Logger   LoggerConfig `envconfig:"LOG"`
	Security SecurityConfig
	Metrics  MetricsConfig
}

type ServerConfig struct {
	Host            string        `default:"localhost"`
	Port            int           `default:"8084"`
	ReadTimeout     time.Duration `split_words:"true" default:"10s"`
	WriteTimeout    time.Duration `split_words:"true" default:"10s"`
	IdleTimeout     time.Duration `split_words:"true" default:"60s"`
	ShutdownTimeout time.Duration `split_words:"true" default:"30s"`
}

// DatasetConfig points at the three sources; .csv and .xlsx are accepted.
type DatasetConfig struct {
	PaymentsFile string        `split_words:"true" default:"data/order_payments_dataset.csv"`
	SellersFile  string        `split_words:"true" default:"data/sellers_dataset.csv"`
	GeoFile      string        `split_words:"true" default:"data/geolocation_dataset.csv"`
	LoadTimeout  time.Duration `split_words:"true" default:"30s"`
	TopCities    int           `split_words:"true" default:"10"`
	SampleCap    int           `split_words:"true" default:"5000"`
	SampleSeed   uint64        `split_words:"true" default:"42"`
	MemoSize     int           `split_words:"true" default:"64"`

	HexbinGridSize  int `split_words:"true" default:"50"`
	HexbinMinCount  int `split_words:"true" default:"1"`
	DensityGridSize int `split_words:"true" default:"40"`
}

type LoggerConfig struct {
	Level  string `default:"info"`
	Format string `default:"json"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `split_words:"true" default:"true"`
	RateLimitRPS    int      `split_words:"true" default:"100"`
	RateLimitBurst  int      `split_words:"true" default:"10"`
	AllowedOrigins  []string `split_words:"true" default:"http://localhost:8084"`
	TrustedProxies  []string `split_words:"true" default:"127.0.0.1"`
}

type MetricsConfig struct {
	Enabled bool   `default:"true"`
	Path    string `default:"/metrics"`
}

func Load() (*Config, error) {
	return LoadWithDotEnv(DotEnvFile)
}

func LoadWithDotEnv(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Dataset.PaymentsFile == "" || c.Dataset.SellersFile == "" || c.Dataset.GeoFile == "" {
		return fmt.Errorf("dataset file paths cannot be empty")
	}

	if c.Dataset.LoadTimeout <= 0 {
		return fmt.Errorf("dataset load timeout must be positive")
	}

	if c.Dataset.TopCities <= 0 {
		return fmt.Errorf("top cities must be positive, got %d", c.Dataset.TopCities)
	}

	if c.Dataset.SampleCap <= 0 {
		return fmt.Errorf("sample cap must be positive, got %d", c.Dataset.SampleCap)
	}

	if c.Dataset.MemoSize < 0 {
		return fmt.Errorf("memo size cannot be negative")
	}

	if c.Dataset.HexbinGridSize <= 0 {
		return fmt.Errorf("hexbin grid size must be positive, got %d", c.Dataset.HexbinGridSize)
	}

	if c.Dataset.HexbinMinCount <= 0 {
		return fmt.Errorf("hexbin min count must be positive, got %d", c.Dataset.HexbinMinCount)
	}

	if c.Dataset.DensityGridSize < 2 {
		return fmt.Errorf("density grid size must be at least 2, got %d", c.Dataset.DensityGridSize)
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with '/', got %q", c.Metrics.Path)
	}

	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
