package flows

import (
	"context"
	"errors"
	"time"
)

// LoginResult is the flow-local login response shape.
type LoginResult struct {
	Subject          Subject
	Access           AccessToken
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// LoginMetrics carries metric IDs used by the login flow.
type LoginMetrics struct {
	LoginSuccess     int
	LoginFailure     int
	LoginRateLimited int
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady     error
	InvalidCredentials error
	AccountDisabled    error
	UserNotFound       error
	RateLimited        error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	ClientIPFromContext func(context.Context) string

	// CheckRate counts the attempt and decides admission in one step, before
	// anything else runs. ReleaseRate refunds an admitted attempt that did not
	// end in a credential failure.
	CheckRate   func(context.Context, string) error
	ReleaseRate func(context.Context, string) error

	GetUserByEmail func(context.Context, string) (Subject, error)
	VerifyPassword func(password, hash string) (bool, error)
	// DummyHash is verified against when the email is unknown so that the
	// response time does not reveal whether the account exists.
	DummyHash string

	IssueAccess    func(Subject) (AccessToken, error)
	IssueRefresh   func(context.Context, string) (string, time.Time, error)
	TouchLastLogin func(context.Context, string)

	MetricInc func(int)
	Warn      func(string, ...any)

	Metrics LoginMetrics
	Errors  LoginErrors
}

// RunLogin executes rate-limit check, credential verification and token issuance.
// Every admitted attempt is counted up front; only credential failures (unknown
// email, wrong password, disabled account) keep their count, whichever check
// tripped.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (*LoginResult, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = nopMetric
	}
	if deps.Warn == nil {
		deps.Warn = nopWarn
	}
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.GetUserByEmail == nil ||
		deps.VerifyPassword == nil ||
		deps.IssueAccess == nil ||
		deps.IssueRefresh == nil {
		return nil, deps.Errors.EngineNotReady
	}

	ip := deps.ClientIPFromContext(ctx)

	if deps.CheckRate != nil {
		if err := deps.CheckRate(ctx, ip); err != nil {
			if errors.Is(err, deps.Errors.RateLimited) {
				deps.MetricInc(deps.Metrics.LoginRateLimited)
			}
			return nil, err
		}
	}

	fail := func(err error) (*LoginResult, error) {
		deps.MetricInc(deps.Metrics.LoginFailure)
		return nil, err
	}
	release := func() {
		if deps.ReleaseRate == nil {
			return
		}
		if err := deps.ReleaseRate(ctx, ip); err != nil {
			deps.Warn("authcore: failed to release login attempt", "error", err)
		}
	}

	user, err := deps.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, deps.Errors.UserNotFound) {
			_, _ = deps.VerifyPassword(password, deps.DummyHash)
			return fail(deps.Errors.InvalidCredentials)
		}
		release()
		return nil, err
	}

	ok, err := deps.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		deps.Warn("authcore: stored password hash unreadable", "user_id", user.ID, "error", err)
		return fail(deps.Errors.InvalidCredentials)
	}
	if !ok {
		return fail(deps.Errors.InvalidCredentials)
	}

	if user.Disabled {
		return fail(deps.Errors.AccountDisabled)
	}

	release()

	access, err := deps.IssueAccess(user)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := deps.IssueRefresh(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if deps.TouchLastLogin != nil {
		deps.TouchLastLogin(ctx, user.ID)
	}
	deps.MetricInc(deps.Metrics.LoginSuccess)

	return &LoginResult{
		Subject:          user,
		Access:           access,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}
