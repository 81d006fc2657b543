package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "blacklist:"

// ErrBlacklistUnavailable wraps every Redis failure of the blacklist.
var ErrBlacklistUnavailable = errors.New("blacklist unavailable")

// Blacklist records revoked access-token identifiers until they would have
// expired anyway.
type Blacklist struct {
	redis   redis.UniversalClient
	timeout time.Duration
}

// NewBlacklist returns a Blacklist on redisClient. A zero timeout leaves the
// caller's context deadline in charge.
func NewBlacklist(redisClient redis.UniversalClient, timeout time.Duration) *Blacklist {
	return &Blacklist{redis: redisClient, timeout: timeout}
}

// Add blacklists jti for ttl. A non-positive ttl means the token has already
// expired and there is nothing to record.
func (b *Blacklist) Add(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return errors.New("blacklist: empty jti")
	}
	if ttl <= 0 {
		return nil
	}
	// Redis EX has second granularity; never round a live token down to zero.
	if ttl < time.Second {
		ttl = time.Second
	}

	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	if err := b.redis.Set(ctx, blacklistPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBlacklistUnavailable, err)
	}
	return nil
}

// Contains reports whether jti is currently blacklisted.
func (b *Blacklist) Contains(ctx context.Context, jti string) (bool, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	n, err := b.redis.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBlacklistUnavailable, err)
	}
	return n > 0, nil
}

func (b *Blacklist) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, b.timeout)
}
