package limiters

import (
	"context"
	"time"

	"github.com/MrEthical07/authcore/internal/rate"
)

// VerificationConfig bounds verification-email sends per user.
type VerificationConfig struct {
	MaxSends int
	Window   time.Duration
}

// VerificationLimiter throttles verification-email sends per user.
type VerificationLimiter struct {
	counter *rate.Limiter
	config  VerificationConfig
}

// NewVerificationLimiter returns a VerificationLimiter counting on counter.
func NewVerificationLimiter(counter *rate.Limiter, cfg VerificationConfig) *VerificationLimiter {
	return &VerificationLimiter{counter: counter, config: cfg}
}

// Allow counts a send for userID and returns a *BlockedError when the
// window's budget is already spent. Callers must not send on error.
func (l *VerificationLimiter) Allow(ctx context.Context, userID string) error {
	if l == nil || l.counter == nil {
		return nil
	}
	d, err := l.counter.CheckAndIncrement(ctx, "verify-email:"+userID, l.config.MaxSends, l.config.Window)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return &BlockedError{RetryAfter: d.RetryAfter}
	}
	return nil
}
