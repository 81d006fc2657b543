package authcore

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authcore/password"
)

// Config is the engine configuration. Build it with DefaultConfig and
// override fields; Builder.Build calls Validate.
type Config struct {
	JWT               JWTConfig
	Refresh           RefreshConfig
	Password          PasswordConfig
	RateLimit         RateLimitConfig
	EmailVerification EmailVerificationConfig
	Timeouts          TimeoutConfig
	Metrics           MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures access-token signing. Secret is the HS256 key and is
// injected at process start; the engine keeps its own copy.
type JWTConfig struct {
	Secret    []byte
	AccessTTL time.Duration
	Issuer    string
}

/*
====================================
REFRESH CONFIG
====================================
*/

type RefreshConfig struct {
	TTL time.Duration
	// Retention is how long expired rows are kept before CleanupExpired removes them.
	Retention time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

type PasswordConfig struct {
	Argon2 password.Config
	Policy password.Policy
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

type RateLimitConfig struct {
	KeyPrefix string

	LoginMaxAttempts int
	LoginWindow      time.Duration

	VerificationMaxSends int
	VerificationWindow   time.Duration
}

/*
====================================
EMAIL VERIFICATION CONFIG
====================================
*/

type EmailVerificationConfig struct {
	TokenTTL time.Duration
}

/*
====================================
TIMEOUT CONFIG
====================================
*/

// TimeoutConfig bounds every external call. A timed-out call surfaces as
// ErrDependencyUnavailable.
type TimeoutConfig struct {
	Store time.Duration
	KV    time.Duration
}

/*
====================================
METRICS CONFIG
====================================
*/

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns production defaults. JWT.Secret is left empty and
// must be supplied.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL: 30 * time.Minute,
		},
		Refresh: RefreshConfig{
			TTL:       7 * 24 * time.Hour,
			Retention: 7 * 24 * time.Hour,
		},
		Password: PasswordConfig{
			Argon2: password.DefaultConfig(),
			Policy: password.DefaultPolicy(),
		},
		RateLimit: RateLimitConfig{
			KeyPrefix:            "ratelimit:",
			LoginMaxAttempts:     5,
			LoginWindow:          15 * time.Minute,
			VerificationMaxSends: 3,
			VerificationWindow:   time.Hour,
		},
		EmailVerification: EmailVerificationConfig{
			TokenTTL: 24 * time.Hour,
		},
		Timeouts: TimeoutConfig{
			Store: 2 * time.Second,
			KV:    500 * time.Millisecond,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = append([]byte(nil), cfg.JWT.Secret...)
	return out
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT Secret must be at least 32 bytes")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}

	// Refresh
	if c.Refresh.TTL <= 0 {
		return errors.New("Refresh TTL must be > 0")
	}
	if c.Refresh.TTL <= c.JWT.AccessTTL {
		return errors.New("Refresh TTL must exceed JWT AccessTTL")
	}
	if c.Refresh.Retention < 0 {
		return errors.New("Refresh Retention must be >= 0")
	}

	// Password
	if err := c.Password.Policy.Validate(); err != nil {
		return fmt.Errorf("Password Policy: %w", err)
	}
	if _, err := password.NewArgon2(c.Password.Argon2); err != nil {
		return fmt.Errorf("Password Argon2: %w", err)
	}

	// Rate limits
	if c.RateLimit.LoginMaxAttempts <= 0 || c.RateLimit.LoginWindow <= 0 {
		return errors.New("RateLimit login attempts and window must be > 0")
	}
	if c.RateLimit.VerificationMaxSends <= 0 || c.RateLimit.VerificationWindow <= 0 {
		return errors.New("RateLimit verification sends and window must be > 0")
	}

	// Email verification
	if c.EmailVerification.TokenTTL <= 0 {
		return errors.New("EmailVerification TokenTTL must be > 0")
	}

	// Timeouts
	if c.Timeouts.Store <= 0 || c.Timeouts.KV <= 0 {
		return errors.New("Timeouts Store and KV must be > 0")
	}

	return nil
}
