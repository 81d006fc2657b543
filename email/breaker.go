package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/MrEthical07/authcore"
)

// BreakerConfig tunes the circuit around an email provider.
type BreakerConfig struct {
	Name string
	// MaxRequests is the number of trial sends allowed while half-open.
	MaxRequests uint32
	Interval    time.Duration
	// Timeout is how long the circuit stays open before a trial send.
	Timeout time.Duration
	// MinRequests and FailureRatio decide when a closed circuit trips.
	MinRequests  uint32
	FailureRatio float64
}

// DefaultBreakerConfig trips after three sends when 60% of them failed and
// retries after 30s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:         "email",
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  3,
		FailureRatio: 0.6,
	}
}

// Breaker stops calling a failing provider. While the circuit is open, sends
// fail fast with authcore.ErrDependencyUnavailable.
type Breaker struct {
	next authcore.EmailSender
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next in a circuit breaker configured by cfg.
func NewBreaker(next authcore.EmailSender, cfg BreakerConfig) *Breaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureRatio
		},
	})
	return &Breaker{next: next, cb: cb}
}

// SendVerificationEmail sends through next unless the circuit is open.
func (b *Breaker) SendVerificationEmail(ctx context.Context, to, token string) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.SendVerificationEmail(ctx, to, token)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: email %v", authcore.ErrDependencyUnavailable, err)
	}
	return err
}

// State reports the circuit state for health output.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
