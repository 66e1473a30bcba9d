package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override, e.g.
// CLICKS_DATABASE_URL or CLICKS_ADMIN_JWT_SECRET.
const EnvPrefix = "CLICKS_"

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Addr           string        `yaml:"addr" env:"ADDR"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	// TrustProxy makes the client IP come from X-Forwarded-For.
	TrustProxy bool `yaml:"trust_proxy" env:"TRUST_PROXY"`
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LEVEL"`       // trace|debug|info|warn|error
	Format   string `yaml:"format" env:"FORMAT"`     // json|console
	Sampling bool   `yaml:"sampling" env:"SAMPLING"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL            string `yaml:"url" env:"URL"`
	MaxConns       int32  `yaml:"max_conns" env:"MAX_CONNS"`
	MigrateOnStart bool   `yaml:"migrate_on_start" env:"MIGRATE_ON_START"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	URL      string `yaml:"url" env:"URL"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	// TTL bounds how stale the cached active promotion list may be.
	TTL time.Duration `yaml:"ttl" env:"TTL"`
}

type PromotionsConfig struct {
	// PublicOrigin is used for QR deep links when the request origin is unknown.
	PublicOrigin    string        `yaml:"public_origin" env:"PUBLIC_ORIGIN"`
	CodeLength      int           `yaml:"code_length" env:"CODE_LENGTH"`
	MaxCodeAttempts int           `yaml:"max_code_attempts" env:"MAX_CODE_ATTEMPTS"`
	SweepInterval   time.Duration `yaml:"sweep_interval" env:"SWEEP_INTERVAL"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" env:"MAX_ATTEMPTS"`
	BaseDelay   time.Duration `yaml:"base_delay" env:"BASE_DELAY"`
	MaxDelay    time.Duration `yaml:"max_delay" env:"MAX_DELAY"`
}

type AdminConfig struct {
	Password     string        `yaml:"password" env:"PASSWORD"`
	JWTSecret    string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	SessionTTL   time.Duration `yaml:"session_ttl" env:"SESSION_TTL"`
	CookieName   string        `yaml:"cookie_name" env:"COOKIE_NAME"`
	SecureCookie bool          `yaml:"secure_cookie" env:"SECURE_COOKIE"`
}

type RateLimitConfig struct {
	// ClaimsPerWindow is the number of claim requests one client IP may make
	// per Window. Zero disables the limiter.
	ClaimsPerWindow int           `yaml:"claims_per_window" env:"CLAIMS_PER_WINDOW"`
	Window          time.Duration `yaml:"window" env:"WINDOW"`
}

type Config struct {
	HTTP       HTTPConfig       `yaml:"http" envPrefix:"HTTP_"`
	Log        LogConfig        `yaml:"log" envPrefix:"LOG_"`
	Database   DatabaseConfig   `yaml:"database" envPrefix:"DATABASE_"`
	Redis      RedisConfig      `yaml:"redis" envPrefix:"REDIS_"`
	Promotions PromotionsConfig `yaml:"promotions" envPrefix:"PROMOTIONS_"`
	Retry      RetryConfig      `yaml:"retry" envPrefix:"RETRY_"`
	Admin      AdminConfig      `yaml:"admin" envPrefix:"ADMIN_"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" envPrefix:"RATE_LIMIT_"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the yaml file at path (optional when it does not exist),
// applies CLICKS_* environment overrides, then defaults and validation.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Runtime.Dev = dev
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":3000"
	}
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout <= 0 {
		c.HTTP.WriteTimeout = 15 * time.Second
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	c.Redis.TTL = normalizeTTL(c.Redis.TTL)
	c.Promotions.PublicOrigin = strings.TrimRight(c.Promotions.PublicOrigin, "/")
	if c.Promotions.PublicOrigin == "" {
		c.Promotions.PublicOrigin = "http://localhost" + c.HTTP.Addr
	}
	if c.Promotions.CodeLength <= 0 {
		c.Promotions.CodeLength = 8
	}
	if c.Promotions.MaxCodeAttempts <= 0 {
		c.Promotions.MaxCodeAttempts = 5
	}
	if c.Promotions.SweepInterval <= 0 {
		c.Promotions.SweepInterval = 30 * time.Minute
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 5
	}
	if c.Retry.BaseDelay <= 0 {
		c.Retry.BaseDelay = 50 * time.Millisecond
	}
	if c.Retry.MaxDelay <= 0 {
		c.Retry.MaxDelay = 2 * time.Second
	}
	if c.Admin.SessionTTL <= 0 {
		c.Admin.SessionTTL = 12 * time.Hour
	}
	if c.Admin.CookieName == "" {
		c.Admin.CookieName = "clicks_admin"
	}
	if c.Runtime.Dev {
		if c.Admin.Password == "" {
			c.Admin.Password = "end it"
		}
		if c.Admin.JWTSecret == "" {
			c.Admin.JWTSecret = "dev-only-secret-not-for-production"
		}
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = time.Minute
	}
}

// Minimal validation
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Redis.Enabled && c.Redis.URL == "" {
		return errors.New("redis.url is required when redis.enabled")
	}
	if c.Admin.Password == "" {
		return errors.New("admin.password is required")
	}
	if len(c.Admin.JWTSecret) < 16 {
		return errors.New("admin.jwt_secret must be at least 16 characters")
	}
	if c.Promotions.CodeLength < 6 {
		return errors.New("promotions.code_length must be at least 6")
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 30 * time.Second
	}
	return d
}
