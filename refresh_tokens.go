package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authcore/internal"
	"github.com/google/uuid"
)

// RefreshTokens issues, rotates and revokes opaque refresh tokens. Only the
// SHA-256 of a token reaches the store.
type RefreshTokens struct {
	store   RefreshTokenStore
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
}

// NewRefreshTokens wraps store. A zero timeout disables the per-call deadline.
func NewRefreshTokens(store RefreshTokenStore, ttl, timeout time.Duration, now func() time.Time) *RefreshTokens {
	if now == nil {
		now = time.Now
	}
	return &RefreshTokens{store: store, ttl: ttl, timeout: timeout, now: now}
}

// Issue creates and persists a new refresh token for userID and returns the
// raw value with its expiry.
func (r *RefreshTokens) Issue(ctx context.Context, userID string) (string, time.Time, error) {
	raw, rec, err := r.newRecord(userID)
	if err != nil {
		return "", time.Time{}, err
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.store.Insert(ctx, rec); err != nil {
		return "", time.Time{}, unavailable(err)
	}
	return raw, rec.ExpiresAt, nil
}

// Rotate consumes raw and returns its replacement together with the owning
// user id. A token can be rotated exactly once.
func (r *RefreshTokens) Rotate(ctx context.Context, raw string) (string, string, time.Time, error) {
	if err := internal.CheckRefreshToken(raw); err != nil {
		return "", "", time.Time{}, ErrInvalidToken
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	// The owner is only known after the old row is consumed, so the store
	// fills next.UserID from it inside the transaction.
	nextRaw, next, err := r.newRecord("")
	if err != nil {
		return "", "", time.Time{}, err
	}

	inserted, err := r.store.Rotate(ctx, internal.HashToken(raw), next, r.now())
	if err != nil {
		return "", "", time.Time{}, rotateError(err)
	}
	return nextRaw, inserted.UserID, inserted.ExpiresAt, nil
}

// Owner returns the user of a live token without consuming it. It reports
// the same errors Rotate would for a token that is unknown, used or expired.
func (r *RefreshTokens) Owner(ctx context.Context, raw string) (string, error) {
	if err := internal.CheckRefreshToken(raw); err != nil {
		return "", ErrInvalidToken
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rec, err := r.store.FindByHash(ctx, internal.HashToken(raw))
	switch {
	case err != nil:
		return "", rotateError(err)
	case rec.Terminal():
		return "", ErrTokenAlreadyUsed
	case !r.now().Before(rec.ExpiresAt):
		return "", ErrTokenExpired
	}
	return rec.UserID, nil
}

// Revoke marks a single token revoked. Unknown or terminal tokens are not an error.
func (r *RefreshTokens) Revoke(ctx context.Context, raw string) error {
	if err := internal.CheckRefreshToken(raw); err != nil {
		return ErrInvalidToken
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	err := r.store.RevokeByHash(ctx, internal.HashToken(raw), r.now())
	if errors.Is(err, ErrTokenNotFound) {
		return nil
	}
	return unavailable(err)
}

// RevokeAll revokes every live token of userID.
func (r *RefreshTokens) RevokeAll(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	n, err := r.store.RevokeAllForUser(ctx, userID, r.now())
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

func (r *RefreshTokens) newRecord(userID string) (string, RefreshTokenRecord, error) {
	raw, err := internal.NewRefreshToken()
	if err != nil {
		return "", RefreshTokenRecord{}, err
	}
	now := r.now().UTC()
	return raw, RefreshTokenRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: internal.HashToken(raw),
		ExpiresAt: now.Add(r.ttl),
		CreatedAt: now,
	}, nil
}

func rotateError(err error) error {
	switch {
	case errors.Is(err, ErrTokenNotFound):
		return ErrInvalidToken
	case errors.Is(err, ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, ErrTokenAlreadyUsed):
		return ErrTokenAlreadyUsed
	default:
		return unavailable(err)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
