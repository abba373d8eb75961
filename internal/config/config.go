// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"` // history routes only
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // history cache ttl
}

type AuthConfig struct {
	HMACSecret string        `yaml:"hmac_secret"`
	Issuer     string        `yaml:"issuer"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
}

type OCRConfig struct {
	Provider          string        `yaml:"provider"` // ocrspace | noop
	Endpoint          string        `yaml:"endpoint"`
	APIKey            string        `yaml:"api_key"`
	Language          string        `yaml:"language"`
	DetectOrientation bool          `yaml:"detect_orientation"`
	Scale             bool          `yaml:"scale"`
	Timeout           time.Duration `yaml:"timeout"` // 0 keeps the transport default
	// MaxConcurrent is opt-in backpressure on provider calls. The default 0
	// leaves them uncapped, so every accepted job reaches the provider at once.
	MaxConcurrent int `yaml:"max_concurrent"`
}

type HistoryConfig struct {
	DefaultLimit     int           `yaml:"default_limit"`
	MaxLimit         int           `yaml:"max_limit"`
	CreateRateLimit  int           `yaml:"create_rate_limit"` // 0 disables
	CreateRateWindow time.Duration `yaml:"create_rate_window"`
}

type SchedulerConfig struct {
	StaleCheckInterval time.Duration `yaml:"stale_check_interval"`
	StalePendingAfter  time.Duration `yaml:"stale_pending_after"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	OCR       OCRConfig       `yaml:"ocr"`
	History   HistoryConfig   `yaml:"history"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, applies env overrides for secrets,
// fills defaults and validates. In dev mode the database, redis and provider
// key may be left empty; in-memory and noop implementations are used instead.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("OCR_API_KEY"); v != "" {
		cfg.OCR.APIKey = v
	}
	if v := os.Getenv("AUTH_HMAC_SECRET"); v != "" {
		cfg.Auth.HMACSecret = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 10 * time.Second
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "ocr-pro"
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	cfg.OCR.Provider = strings.ToLower(strings.TrimSpace(cfg.OCR.Provider))
	if cfg.OCR.Provider == "" {
		cfg.OCR.Provider = "ocrspace"
	}
	if cfg.OCR.Endpoint == "" {
		cfg.OCR.Endpoint = "https://api.ocr.space/parse/image"
	}
	if cfg.OCR.Language == "" {
		cfg.OCR.Language = "eng"
	}
	if cfg.History.DefaultLimit <= 0 {
		cfg.History.DefaultLimit = 20
	}
	if cfg.History.MaxLimit <= 0 {
		cfg.History.MaxLimit = 100
	}
	if cfg.History.CreateRateWindow <= 0 {
		cfg.History.CreateRateWindow = time.Minute
	}
	if cfg.Scheduler.StaleCheckInterval <= 0 {
		cfg.Scheduler.StaleCheckInterval = 5 * time.Minute
	}
	if cfg.Scheduler.StalePendingAfter <= 0 {
		cfg.Scheduler.StalePendingAfter = 15 * time.Minute
	}
}

func (cfg *Config) validate() error {
	if cfg.Auth.HMACSecret == "" {
		return errors.New("auth.hmac_secret is required")
	}
	switch cfg.OCR.Provider {
	case "ocrspace", "noop":
	default:
		return fmt.Errorf("ocr.provider %q is not supported", cfg.OCR.Provider)
	}
	if cfg.History.DefaultLimit > cfg.History.MaxLimit {
		return errors.New("history.default_limit must not exceed history.max_limit")
	}
	if cfg.Runtime.Dev {
		return nil
	}
	if cfg.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if cfg.OCR.Provider == "ocrspace" && cfg.OCR.APIKey == "" {
		return errors.New("ocr.api_key is required for the ocrspace provider")
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Minute
	}
	return d
}
