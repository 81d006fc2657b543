package authcore

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEngineNotReady is returned when a required collaborator was not wired.
	ErrEngineNotReady = errors.New("engine not ready")

	// ErrInvalidCredentials covers unknown email and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled is returned for disabled users on login and refresh.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrEmailAlreadyExists is returned by Register and UserStore.CreateUser.
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("weak password")
	ErrUserNotFound       = errors.New("user not found")

	// ErrTokenExpired is returned for expired access or refresh tokens.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked is returned for blacklisted access tokens and revoked refresh tokens.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrTokenAlreadyUsed is returned when a refresh token has already been rotated.
	ErrTokenAlreadyUsed = errors.New("token already used")
	// ErrTokenNotFound is returned when no refresh token row matches the presented value.
	ErrTokenNotFound = errors.New("token not found")
	// ErrInvalidToken is returned for access tokens with a bad signature or shape.
	ErrInvalidToken = errors.New("invalid token")

	// ErrRateLimited is matched by every *RateLimitedError.
	ErrRateLimited = errors.New("rate limited")
	// ErrDependencyUnavailable is returned when the relational or key-value
	// store failed or timed out. It is the only retryable error.
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	ErrAlreadyVerified     = errors.New("email already verified")
	ErrVerificationInvalid = errors.New("invalid or expired verification token")
	ErrAlreadyDisabled     = errors.New("user already disabled")
	ErrAlreadyEnabled      = errors.New("user already enabled")
)

// RateLimitedError carries the time left in the current window.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter)
}

func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// RetryAfterOf extracts the retry hint from a rate-limit error.
func RetryAfterOf(err error) (time.Duration, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, false
}

// IsTokenError reports whether err is one of the token failure kinds that
// map to an unauthenticated response.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenRevoked) ||
		errors.Is(err, ErrTokenAlreadyUsed) ||
		errors.Is(err, ErrTokenNotFound) ||
		errors.Is(err, ErrInvalidToken)
}

// unavailable passes through domain errors listed in known and wraps
// everything else as ErrDependencyUnavailable.
func unavailable(err error, known ...error) error {
	if err == nil {
		return nil
	}
	for _, k := range known {
		if errors.Is(err, k) {
			return err
		}
	}
	if errors.Is(err, ErrDependencyUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
}
