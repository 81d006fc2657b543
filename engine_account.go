package authcore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Register creates a standard, unverified account. The email is trimmed and
// lower-cased before it is checked and stored.
func (e *Engine) Register(ctx context.Context, email, pw string) (*User, error) {
	if e.users == nil || e.passwordHash == nil {
		return nil, ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if err := e.validate.Var(email, "required,email,max=254"); err != nil {
		return nil, ErrInvalidEmail
	}
	if err := e.config.Password.Policy.Check(pw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	hash, err := e.passwordHash.Hash(pw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	ctx, cancel := e.storeCtx(ctx)
	defer cancel()

	u, err := e.users.CreateUser(ctx, NewUser{
		Email:        email,
		PasswordHash: hash,
		Role:         RoleUser,
	})
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			e.metricInc(MetricRegisterDuplicate)
			return nil, ErrEmailAlreadyExists
		}
		return nil, e.dependencyError(unavailable(err))
	}

	e.metricInc(MetricRegisterSuccess)
	return &u, nil
}

// Me returns the profile of the authenticated subject.
func (e *Engine) Me(ctx context.Context, subjectID string) (*User, error) {
	return e.getUser(ctx, subjectID)
}

func (e *Engine) getUser(ctx context.Context, id string) (*User, error) {
	if e.users == nil {
		return nil, ErrEngineNotReady
	}
	if id == "" {
		return nil, ErrUserNotFound
	}

	ctx, cancel := e.storeCtx(ctx)
	defer cancel()

	u, err := e.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, e.dependencyError(unavailable(err, ErrUserNotFound))
	}
	return &u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
