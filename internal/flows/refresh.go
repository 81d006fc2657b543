package flows

import (
	"context"
	"time"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureLookup
	RefreshFailureRotate
	RefreshFailureUserLookup
	RefreshFailureAccountDisabled
	RefreshFailureIssueAccess
)

// RefreshResult carries either the issued token pair or failure metadata.
type RefreshResult struct {
	Failure          RefreshFailureKind
	Err              error
	UserID           string
	Subject          Subject
	Access           AccessToken
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	// Lookup resolves the owner of a live token without consuming it.
	Lookup func(ctx context.Context, raw string) (userID string, err error)
	// Rotate consumes raw and returns its replacement and owner.
	Rotate      func(ctx context.Context, raw string) (next string, userID string, expiresAt time.Time, err error)
	GetUserByID func(context.Context, string) (Subject, error)
	RevokeAll   func(context.Context, string) error
	IssueAccess func(Subject) (AccessToken, error)
	Warn        func(string, ...any)
}

// RunRefresh issues an access token bound to the owner's current role and
// then rotates the refresh token. Everything that can fail transiently runs
// before the rotation, so an error before it leaves raw usable for a retry.
// The store's single-use guard in Rotate still decides racing presentations.
func RunRefresh(ctx context.Context, raw string, deps RefreshDeps) RefreshResult {
	if deps.Warn == nil {
		deps.Warn = nopWarn
	}

	userID, err := deps.Lookup(ctx, raw)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureLookup, Err: err}
	}

	user, err := deps.GetUserByID(ctx, userID)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureUserLookup, Err: err, UserID: userID}
	}

	if user.Disabled {
		if err := deps.RevokeAll(ctx, userID); err != nil {
			deps.Warn("authcore: revoke after disabled refresh failed", "user_id", userID, "error", err)
		}
		return RefreshResult{Failure: RefreshFailureAccountDisabled, UserID: userID, Subject: user}
	}

	access, err := deps.IssueAccess(user)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssueAccess, Err: err, UserID: userID, Subject: user}
	}

	next, _, exp, err := deps.Rotate(ctx, raw)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureRotate, Err: err, UserID: userID}
	}

	return RefreshResult{
		Failure:          RefreshFailureNone,
		UserID:           userID,
		Subject:          user,
		Access:           access,
		RefreshToken:     next,
		RefreshExpiresAt: exp,
	}
}
