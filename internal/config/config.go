package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Assistant AssistantConfig `yaml:"assistant"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	Mode            string        `yaml:"mode"`
	SessionCookie   string        `yaml:"session_cookie"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	LogMode         bool          `yaml:"log_mode"`
	Seed            bool          `yaml:"seed"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// AssistantConfig tunes matching and reply sizes
type AssistantConfig struct {
	FuzzyCutoff      float64 `yaml:"fuzzy_cutoff"`
	TopSellerLimit   int     `yaml:"top_seller_limit"`
	BudgetPreview    int     `yaml:"budget_preview"`
	HighlightPreview int     `yaml:"highlight_preview"`
	Currency         string  `yaml:"currency"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Mode:            "release",
			SessionCookie:   "cafe_session",
			ShutdownTimeout: 10 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Database: DatabaseConfig{
			Driver:          "sqlite3",
			DSN:             "cafe.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
			Seed:            true,
		},
		Auth: AuthConfig{
			Issuer:   "cafeassist",
			TokenTTL: 24 * time.Hour,
		},
		Assistant: AssistantConfig{
			FuzzyCutoff:      0.70,
			TopSellerLimit:   5,
			BudgetPreview:    6,
			HighlightPreview: 3,
			Currency:         "₹",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads .env (if any), the YAML file at path (if it exists) and CAFE_*
// environment overrides, in that order, on top of the defaults.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside development
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("CAFE_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CAFE_PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v, ok := os.LookupEnv("CAFE_METRICS_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CAFE_METRICS_PORT %q: %w", v, err)
		}
		c.Metrics.Port = port
	}
	if v, ok := os.LookupEnv("CAFE_METRICS_ENABLED"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CAFE_METRICS_ENABLED %q: %w", v, err)
		}
		c.Metrics.Enabled = enabled
	}
	setString(&c.Database.Driver, "CAFE_DB_DRIVER")
	setString(&c.Database.DSN, "CAFE_DB_DSN")
	setString(&c.Auth.JWTSecret, "CAFE_JWT_SECRET")
	setString(&c.Log.Level, "CAFE_LOG_LEVEL")
	setString(&c.Server.Mode, "CAFE_SERVER_MODE")
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// Validate checks the configuration for values the service cannot run with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server mode %q must be debug, release or test", c.Server.Mode)
	}
	if c.Server.SessionCookie == "" {
		return errors.New("server session_cookie is required")
	}
	if c.Metrics.Enabled {
		if c.Metrics.Port <= 0 || c.Metrics.Port > 65535 {
			return fmt.Errorf("metrics port %d out of range", c.Metrics.Port)
		}
		if c.Metrics.Port == c.Server.Port {
			return errors.New("metrics port must differ from server port")
		}
	}
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn is required")
	}
	if c.Assistant.FuzzyCutoff <= 0 || c.Assistant.FuzzyCutoff > 1 {
		return fmt.Errorf("assistant fuzzy_cutoff %.2f must be in (0, 1]", c.Assistant.FuzzyCutoff)
	}
	if c.Assistant.TopSellerLimit <= 0 || c.Assistant.BudgetPreview <= 0 || c.Assistant.HighlightPreview <= 0 {
		return errors.New("assistant preview limits must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth token_ttl must be positive")
	}
	return nil
}
