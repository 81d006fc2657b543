package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed    bool
	Count      int64
	RetryAfter time.Duration
}

// Config holds limiter tuning.
type Config struct {
	// Prefix is prepended to every key, e.g. "ratelimit:".
	Prefix string
	// Timeout bounds each Redis round trip. Zero leaves ctx untouched.
	Timeout time.Duration
}

// Limiter is a fixed-window counter store. It keeps no in-process state.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a [Limiter] backed by redisClient.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{redis: redisClient, config: cfg}
}

// CheckAndIncrement counts an attempt against key and reports whether it is
// within limit for the current window. The (limit+1)-th attempt is blocked.
func (l *Limiter) CheckAndIncrement(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	full := l.key(key)
	count, err := l.incrementWithTTL(ctx, full, window)
	if err != nil {
		return Decision{}, err
	}
	if count <= int64(limit) {
		return Decision{Allowed: true, Count: count}, nil
	}

	retry, err := l.retryAfter(ctx, full, window)
	if err != nil {
		return Decision{}, err
	}
	return Decision{Count: count, RetryAfter: retry}, nil
}

// Release returns one previously counted attempt to key's window. It never
// drives the counter below zero and leaves the window's TTL untouched.
func (l *Limiter) Release(ctx context.Context, key string) error {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	if err := releaseLua.Run(ctx, l.redis, []string{l.key(key)}).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

const releaseScript = `
local n = tonumber(redis.call('GET', KEYS[1]) or '0')
if n and n > 0 then
  return redis.call('DECR', KEYS[1])
end
return 0
`

var releaseLua = redis.NewScript(releaseScript)

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}

// retryAfter reads the remaining window. A counter left without a TTL (the
// EXPIRE after the first INCR was lost) is given a fresh window so it cannot
// block forever.
func (l *Limiter) retryAfter(ctx context.Context, key string, window time.Duration) (time.Duration, error) {
	ttl, err := l.redis.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if ttl < 0 {
		if err := l.redis.Expire(ctx, key, window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		return window, nil
	}
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl, nil
}

func (l *Limiter) key(k string) string {
	return l.config.Prefix + k
}

func (l *Limiter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.config.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, l.config.Timeout)
}
