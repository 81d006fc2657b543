package limiters

import (
	"errors"
	"fmt"
	"time"
)

// ErrRateLimited is matched by every [BlockedError].
var ErrRateLimited = errors.New("rate limited")

// BlockedError reports a blocked attempt and when to retry.
type BlockedError struct {
	RetryAfter time.Duration
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter)
}

func (e *BlockedError) Is(target error) bool {
	return target == ErrRateLimited
}
