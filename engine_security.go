package authcore

import (
	"log/slog"
	"time"

	"github.com/MrEthical07/authcore/password"
)

// SecurityReport summarizes the engine's effective security posture.
type SecurityReport struct {
	SigningAlgorithm string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	Argon2           password.Config

	LoginMaxAttempts     int
	LoginWindow          time.Duration
	VerificationMaxSends int
	VerificationWindow   time.Duration

	EmailVerificationActive bool
	MetricsEnabled          bool
}

// SecurityReport reports the configuration the engine was built with. It
// never includes the signing secret.
func (e *Engine) SecurityReport() SecurityReport {
	return SecurityReport{
		SigningAlgorithm:        "HS256",
		AccessTTL:               e.config.JWT.AccessTTL,
		RefreshTTL:              e.config.Refresh.TTL,
		Argon2:                  e.config.Password.Argon2,
		LoginMaxAttempts:        e.config.RateLimit.LoginMaxAttempts,
		LoginWindow:             e.config.RateLimit.LoginWindow,
		VerificationMaxSends:    e.config.RateLimit.VerificationMaxSends,
		VerificationWindow:      e.config.RateLimit.VerificationWindow,
		EmailVerificationActive: e.verifications != nil && e.email != nil,
		MetricsEnabled:          e.config.Metrics.Enabled,
	}
}

// LogValue renders the report as a single structured log group.
func (r SecurityReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("alg", r.SigningAlgorithm),
		slog.Duration("access_ttl", r.AccessTTL),
		slog.Duration("refresh_ttl", r.RefreshTTL),
		slog.Any("argon2_memory_kib", r.Argon2.Memory),
		slog.Any("argon2_time", r.Argon2.Time),
		slog.Any("argon2_parallelism", r.Argon2.Parallelism),
		slog.Int("login_max_attempts", r.LoginMaxAttempts),
		slog.Duration("login_window", r.LoginWindow),
		slog.Int("verification_max_sends", r.VerificationMaxSends),
		slog.Bool("email_verification", r.EmailVerificationActive),
		slog.Bool("metrics", r.MetricsEnabled),
	)
}
