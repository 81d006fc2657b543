// Package config loads the authd service configuration from a YAML file with
// an environment overlay.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/MrEthical07/authcore"
)

// Config is the root service configuration.
// Sources, highest priority first:
//  1. explicit path from --config;
//  2. path in CONFIG_PATH;
//  3. ./config/local.yaml;
//  4. environment only.
//
// Environment variables always override values read from a file.
type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local"`
	HTTP      HTTPConfig      `yaml:"http"`
	JWT       JWTConfig       `yaml:"jwt"`
	DB        DBConfig        `yaml:"db"`
	Redis     RedisConfig     `yaml:"redis"`
	Email     EmailConfig     `yaml:"email"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
	Janitor   JanitorConfig   `yaml:"janitor"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"HTTP_REQUEST_TIMEOUT" env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`

	// TrustProxy makes the first X-Forwarded-For entry the client IP.
	TrustProxy   bool `yaml:"trust_proxy" env:"HTTP_TRUST_PROXY" env-default:"false"`
	SecureCookie bool `yaml:"secure_cookie" env:"HTTP_SECURE_COOKIE" env-default:"true"`
}

type JWTConfig struct {
	Secret              string `yaml:"secret" env:"JWT_SECRET" env-required:"true"`
	Issuer              string `yaml:"issuer" env:"JWT_ISSUER" env-default:"authcore"`
	AccessExpiryMinutes int    `yaml:"access_expiry_minutes" env:"JWT_ACCESS_EXPIRY_MINUTES" env-default:"30"`
	RefreshExpiryDays   int    `yaml:"refresh_expiry_days" env:"JWT_REFRESH_EXPIRY_DAYS" env-default:"7"`

	VerificationTokenTTL time.Duration `yaml:"verification_token_ttl" env:"VERIFICATION_TOKEN_TTL" env-default:"24h"`
}

type DBConfig struct {
	URL     string `yaml:"url" env:"DATABASE_URL" env-required:"true"`
	Migrate bool   `yaml:"migrate" env:"DATABASE_MIGRATE" env-default:"true"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// EmailConfig selects the verification email provider: "log", "sendgrid" or
// "mailgun".
type EmailConfig struct {
	Provider  string `yaml:"provider" env:"EMAIL_PROVIDER" env-default:"log"`
	From      string `yaml:"from" env:"EMAIL_FROM"`
	FromName  string `yaml:"from_name" env:"EMAIL_FROM_NAME" env-default:"authcore"`
	VerifyURL string `yaml:"verify_url" env:"EMAIL_VERIFY_URL"`

	SendGridKey string `yaml:"sendgrid_key" env:"SENDGRID_API_KEY"`

	MailgunKey     string `yaml:"mailgun_key" env:"MAILGUN_API_KEY"`
	MailgunDomain  string `yaml:"mailgun_domain" env:"MAILGUN_DOMAIN"`
	MailgunAPIBase string `yaml:"mailgun_api_base" env:"MAILGUN_API_BASE"`
}

type RateLimitConfig struct {
	LoginMaxAttempts     int           `yaml:"login_max_attempts" env:"RATE_LOGIN_MAX_ATTEMPTS" env-default:"5"`
	LoginWindow          time.Duration `yaml:"login_window" env:"RATE_LOGIN_WINDOW" env-default:"15m"`
	VerificationMaxSends int           `yaml:"verification_max_sends" env:"RATE_VERIFICATION_MAX_SENDS" env-default:"3"`
	VerificationWindow   time.Duration `yaml:"verification_window" env:"RATE_VERIFICATION_WINDOW" env-default:"1h"`
}

type TimeoutConfig struct {
	Store time.Duration `yaml:"store" env:"TIMEOUT_STORE" env-default:"2s"`
	KV    time.Duration `yaml:"kv" env:"TIMEOUT_KV" env-default:"500ms"`
}

type JanitorConfig struct {
	Interval  time.Duration `yaml:"interval" env:"JANITOR_INTERVAL" env-default:"30m"`
	Retention time.Duration `yaml:"retention" env:"JANITOR_RETENTION" env-default:"168h"`
}

const defaultPath = "config/local.yaml"

// MustLoad is Load that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load resolves the configuration source, reads it and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config

	switch {
	case path != "":
	case os.Getenv("CONFIG_PATH") != "":
		path = os.Getenv("CONFIG_PATH")
	default:
		if _, err := os.Stat(defaultPath); err == nil {
			path = defaultPath
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", path, err)
		}
		// ReadConfig applies the env overlay after parsing the file.
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, %s or env vars: %w", defaultPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values cleanenv cannot express as tags.
func (c *Config) Validate() error {
	if len(c.JWT.Secret) < 32 {
		return errors.New("jwt secret must be at least 32 bytes")
	}
	if c.JWT.AccessExpiryMinutes <= 0 || c.JWT.RefreshExpiryDays <= 0 {
		return errors.New("jwt expiries must be positive")
	}
	if c.AccessTTL() >= c.RefreshTTL() {
		return errors.New("access token expiry must be shorter than refresh token expiry")
	}

	switch c.Email.Provider {
	case "log":
	case "sendgrid":
		if c.Email.SendGridKey == "" || c.Email.From == "" {
			return errors.New("sendgrid provider requires SENDGRID_API_KEY and EMAIL_FROM")
		}
	case "mailgun":
		if c.Email.MailgunKey == "" || c.Email.MailgunDomain == "" || c.Email.From == "" {
			return errors.New("mailgun provider requires MAILGUN_API_KEY, MAILGUN_DOMAIN and EMAIL_FROM")
		}
	default:
		return fmt.Errorf("unknown email provider %q", c.Email.Provider)
	}
	return nil
}

func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.JWT.AccessExpiryMinutes) * time.Minute
}

func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.JWT.RefreshExpiryDays) * 24 * time.Hour
}

// Engine converts the service settings into an engine configuration on top
// of authcore.DefaultConfig.
func (c *Config) Engine() authcore.Config {
	ec := authcore.DefaultConfig()

	ec.JWT.Secret = []byte(c.JWT.Secret)
	ec.JWT.Issuer = c.JWT.Issuer
	ec.JWT.AccessTTL = c.AccessTTL()
	ec.Refresh.TTL = c.RefreshTTL()
	ec.Refresh.Retention = c.Janitor.Retention

	ec.RateLimit.LoginMaxAttempts = c.RateLimit.LoginMaxAttempts
	ec.RateLimit.LoginWindow = c.RateLimit.LoginWindow
	ec.RateLimit.VerificationMaxSends = c.RateLimit.VerificationMaxSends
	ec.RateLimit.VerificationWindow = c.RateLimit.VerificationWindow

	ec.EmailVerification.TokenTTL = c.JWT.VerificationTokenTTL

	ec.Timeouts.Store = c.Timeouts.Store
	ec.Timeouts.KV = c.Timeouts.KV

	return ec
}
