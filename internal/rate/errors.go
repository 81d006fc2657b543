package rate

import "errors"

var (
	// ErrRedisUnavailable wraps any Redis failure, including timeouts.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
