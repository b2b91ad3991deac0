// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	StaticDir      string        `yaml:"static_dir"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	CORSOrigins    []string      `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret"`
	TokenTTL         time.Duration `yaml:"token_ttl"`
	MaxLoginAttempts int           `yaml:"max_login_attempts"`
	LockDuration     time.Duration `yaml:"lock_duration"`
	LoginRateLimit   int           `yaml:"login_rate_limit"`
	LoginRateWindow  time.Duration `yaml:"login_rate_window"`
}

type BillingConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Interval       time.Duration `yaml:"interval"`
	ScheduleAnchor string        `yaml:"schedule_anchor"` // previous|now
	Concurrency    int           `yaml:"concurrency"`
	BatchLimit     int           `yaml:"batch_limit"` // 0 = unlimited
	LockTTL        time.Duration `yaml:"lock_ttl"`
}

type DeliveryConfig struct {
	ExpressFee int64 `yaml:"express_fee"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Billing  BillingConfig  `yaml:"billing"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	Runtime RuntimeConfig `yaml:"-"`
}

// FromFlags parses -config and -dev and loads the file they point to.
func FromFlags() (*Config, error) {
	var configPath string
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()
	return LoadConfig(configPath, dev)
}

// LoadConfig reads the yaml file, applies .env and environment overrides,
// fills defaults and validates the result.
func LoadConfig(configPath string, dev bool) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}
	switch cfg.Billing.ScheduleAnchor {
	case "previous", "now":
	default:
		return nil, fmt.Errorf("billing.schedule_anchor: unknown value %q", cfg.Billing.ScheduleAnchor)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		cfg.HTTP.Port = port
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 30 * time.Second
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	if cfg.Auth.MaxLoginAttempts <= 0 {
		cfg.Auth.MaxLoginAttempts = 5
	}
	if cfg.Auth.LockDuration <= 0 {
		cfg.Auth.LockDuration = 30 * time.Minute
	}
	if cfg.Auth.LoginRateLimit <= 0 {
		cfg.Auth.LoginRateLimit = 10
	}
	if cfg.Auth.LoginRateWindow <= 0 {
		cfg.Auth.LoginRateWindow = time.Minute
	}
	if cfg.Billing.Interval <= 0 {
		cfg.Billing.Interval = time.Hour
	}
	if cfg.Billing.ScheduleAnchor == "" {
		cfg.Billing.ScheduleAnchor = "previous"
	}
	if cfg.Billing.Concurrency <= 0 {
		cfg.Billing.Concurrency = 4
	}
	if cfg.Billing.LockTTL <= 0 {
		cfg.Billing.LockTTL = 10 * time.Minute
	}
	if cfg.Delivery.ExpressFee <= 0 {
		cfg.Delivery.ExpressFee = 1500
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
