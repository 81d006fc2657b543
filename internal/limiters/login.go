package limiters

import (
	"context"
	"time"

	"github.com/MrEthical07/authcore/internal/rate"
)

// LoginConfig bounds login attempts per client IP.
type LoginConfig struct {
	MaxAttempts int
	Window      time.Duration
}

// LoginLimiter throttles logins per client IP. Every attempt is counted before
// the password is checked; attempts that do not end in a credential failure
// are handed back with Release.
type LoginLimiter struct {
	counter *rate.Limiter
	config  LoginConfig
}

// NewLoginLimiter returns a LoginLimiter counting on counter.
func NewLoginLimiter(counter *rate.Limiter, cfg LoginConfig) *LoginLimiter {
	return &LoginLimiter{counter: counter, config: cfg}
}

// Attempt counts one login attempt for ip and returns a *BlockedError when it
// is beyond MaxAttempts for the current window. Concurrent attempts are
// admitted on the value of a single INCR, so at most MaxAttempts run at once.
func (l *LoginLimiter) Attempt(ctx context.Context, ip string) error {
	if l == nil || l.counter == nil {
		return nil
	}
	d, err := l.counter.CheckAndIncrement(ctx, loginKey(ip), l.config.MaxAttempts, l.config.Window)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return &BlockedError{RetryAfter: d.RetryAfter}
	}
	return nil
}

// Release refunds an admitted attempt that did not fail on credentials.
func (l *LoginLimiter) Release(ctx context.Context, ip string) error {
	if l == nil || l.counter == nil {
		return nil
	}
	return l.counter.Release(ctx, loginKey(ip))
}

func loginKey(ip string) string {
	if ip == "" {
		ip = "unknown"
	}
	return "login:" + ip
}
