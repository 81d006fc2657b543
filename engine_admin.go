package authcore

import (
	"context"
	"errors"
)

// ListUsers returns one page of users, newest first.
func (e *Engine) ListUsers(ctx context.Context, f UserFilter) (*UserPage, error) {
	if e.users == nil {
		return nil, ErrEngineNotReady
	}
	f = f.Normalize()

	ctx, cancel := e.storeCtx(ctx)
	defer cancel()

	page, err := e.users.ListUsers(ctx, f)
	if err != nil {
		return nil, e.dependencyError(unavailable(err))
	}
	page.Page = f.Page
	page.PerPage = f.PerPage
	page.TotalPages = int((page.Total + int64(f.PerPage) - 1) / int64(f.PerPage))
	return &page, nil
}

func (e *Engine) GetUser(ctx context.Context, id string) (*User, error) {
	return e.getUser(ctx, id)
}

// DisableUser disables the account and revokes all of its refresh tokens.
// Access tokens already issued stay valid until they expire.
func (e *Engine) DisableUser(ctx context.Context, id string) (*User, error) {
	u, err := e.setDisabled(ctx, id, true)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricAccountDisabled)

	if n, err := e.refresh.RevokeAll(ctx, id); err != nil {
		e.logger.WarnContext(ctx, "authcore: revoke on disable failed", "user_id", id, "error", err)
	} else {
		e.logger.InfoContext(ctx, "authcore: user disabled", "user_id", id, "revoked_tokens", n)
	}
	return u, nil
}

func (e *Engine) EnableUser(ctx context.Context, id string) (*User, error) {
	u, err := e.setDisabled(ctx, id, false)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricAccountEnabled)
	return u, nil
}

func (e *Engine) setDisabled(ctx context.Context, id string, disabled bool) (*User, error) {
	if e.users == nil {
		return nil, ErrEngineNotReady
	}
	if id == "" {
		return nil, ErrUserNotFound
	}

	ctx, cancel := e.storeCtx(ctx)
	defer cancel()

	u, err := e.users.SetDisabled(ctx, id, disabled)
	if err != nil {
		return nil, e.dependencyError(unavailable(err, ErrUserNotFound, ErrAlreadyDisabled, ErrAlreadyEnabled))
	}
	return &u, nil
}

// UserStats returns account counts for the admin dashboard.
func (e *Engine) UserStats(ctx context.Context) (*UserStats, error) {
	if e.users == nil {
		return nil, ErrEngineNotReady
	}

	ctx, cancel := e.storeCtx(ctx)
	defer cancel()

	s, err := e.users.Stats(ctx)
	if err != nil {
		return nil, e.dependencyError(unavailable(err))
	}
	return &s, nil
}

// IsActive reports whether subjectID names an existing, enabled account.
// Admin routes use it because a role claim outlives a disable.
func (e *Engine) IsActive(ctx context.Context, subjectID string) (bool, error) {
	u, err := e.getUser(ctx, subjectID)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !u.Disabled(), nil
}
