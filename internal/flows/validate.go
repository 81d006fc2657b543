package flows

import (
	"context"

	"github.com/MrEthical07/authcore/jwt"
)

// ValidateFailureKind classifies validation failures for root-level mapping.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureToken
	ValidateFailureBlacklisted
	ValidateFailureBlacklistUnavailable
)

// ValidateResult returns either claims or a classified failure.
type ValidateResult struct {
	Failure ValidateFailureKind
	Err     error
	Claims  *jwt.Claims
}

// ValidateDeps captures access-token validation dependencies.
type ValidateDeps struct {
	Verify            func(string) (*jwt.Claims, error)
	BlacklistContains func(context.Context, string) (bool, error)
}

// RunValidate verifies the token and then checks the blacklist. A blacklist
// read failure is reported as such, never as a pass.
func RunValidate(ctx context.Context, token string, deps ValidateDeps) ValidateResult {
	claims, err := deps.Verify(token)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureToken, Err: err}
	}

	revoked, err := deps.BlacklistContains(ctx, claims.JTI())
	if err != nil {
		return ValidateResult{Failure: ValidateFailureBlacklistUnavailable, Err: err, Claims: claims}
	}
	if revoked {
		return ValidateResult{Failure: ValidateFailureBlacklisted, Claims: claims}
	}

	return ValidateResult{Failure: ValidateFailureNone, Claims: claims}
}
