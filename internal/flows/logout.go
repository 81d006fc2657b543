package flows

import (
	"context"
	"time"
)

// LogoutDeps captures logout dependencies. Every step is best effort.
type LogoutDeps struct {
	// VerifyAccess returns the jti and exp of a valid access token.
	VerifyAccess  func(string) (jti string, exp time.Time, err error)
	Now           func() time.Time
	BlacklistAdd  func(ctx context.Context, jti string, ttl time.Duration) error
	RevokeRefresh func(ctx context.Context, raw string) error
	Warn          func(string, ...any)
}

// LogoutResult reports which steps took effect.
type LogoutResult struct {
	JTI            string
	Blacklisted    bool
	RefreshRevoked bool
}

// RunLogout blacklists the access token for its remaining lifetime and revokes
// the refresh token. Missing, expired or unknown tokens are skipped; it never fails.
func RunLogout(ctx context.Context, accessToken, refreshToken string, deps LogoutDeps) LogoutResult {
	if deps.Warn == nil {
		deps.Warn = nopWarn
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	var res LogoutResult

	if accessToken != "" && deps.VerifyAccess != nil {
		jti, exp, err := deps.VerifyAccess(accessToken)
		if err == nil {
			res.JTI = jti
			if err := deps.BlacklistAdd(ctx, jti, exp.Sub(deps.Now())); err != nil {
				deps.Warn("authcore: logout blacklist write failed", "jti", jti, "error", err)
			} else {
				res.Blacklisted = true
			}
		}
	}

	if refreshToken != "" && deps.RevokeRefresh != nil {
		if err := deps.RevokeRefresh(ctx, refreshToken); err != nil {
			deps.Warn("authcore: logout refresh revoke skipped", "error", err)
		} else {
			res.RefreshRevoked = true
		}
	}

	return res
}
