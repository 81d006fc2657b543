package authcore

import (
	"context"
	"time"

	"github.com/MrEthical07/authcore/internal/flows"
)

func (e *Engine) buildFlowDeps() flows.Deps {
	metricInc := func(id int) { e.metricInc(MetricID(id)) }

	issueAccess := func(s flows.Subject) (flows.AccessToken, error) {
		issued, err := e.codec.Issue(s.ID, s.Role)
		if err != nil {
			return flows.AccessToken{}, err
		}
		return flows.AccessToken{Token: issued.Token, JTI: issued.JTI, ExpiresAt: issued.ExpiresAt}, nil
	}

	getUserByID := func(ctx context.Context, id string) (flows.Subject, error) {
		ctx, cancel := e.storeCtx(ctx)
		defer cancel()

		u, err := e.users.GetUserByID(ctx, id)
		if err != nil {
			return flows.Subject{}, unavailable(err, ErrUserNotFound)
		}
		return toSubject(u), nil
	}

	return flows.Deps{
		Login: flows.LoginDeps{
			ClientIPFromContext: clientIPFromContext,
			CheckRate: func(ctx context.Context, ip string) error {
				return rateError(e.loginLimiter.Attempt(ctx, ip))
			},
			ReleaseRate: e.loginLimiter.Release,
			GetUserByEmail: func(ctx context.Context, email string) (flows.Subject, error) {
				ctx, cancel := e.storeCtx(ctx)
				defer cancel()

				u, err := e.users.GetUserByEmail(ctx, email)
				if err != nil {
					return flows.Subject{}, unavailable(err, ErrUserNotFound)
				}
				return toSubject(u), nil
			},
			VerifyPassword: e.passwordHash.Verify,
			DummyHash:      e.dummyHash,
			IssueAccess:    issueAccess,
			IssueRefresh:   e.refresh.Issue,
			TouchLastLogin: func(ctx context.Context, id string) {
				ctx, cancel := e.storeCtx(ctx)
				defer cancel()

				if err := e.users.TouchLastLogin(ctx, id, e.now().UTC()); err != nil {
					e.logger.WarnContext(ctx, "authcore: touch last login failed", "user_id", id, "error", err)
				}
			},
			MetricInc: metricInc,
			Warn:      e.logger.Warn,
			Metrics: flows.LoginMetrics{
				LoginSuccess:     int(MetricLoginSuccess),
				LoginFailure:     int(MetricLoginFailure),
				LoginRateLimited: int(MetricLoginRateLimited),
			},
			Errors: flows.LoginErrors{
				EngineNotReady:     ErrEngineNotReady,
				InvalidCredentials: ErrInvalidCredentials,
				AccountDisabled:    ErrAccountDisabled,
				UserNotFound:       ErrUserNotFound,
				RateLimited:        ErrRateLimited,
			},
		},
		Refresh: flows.RefreshDeps{
			Lookup:      e.refresh.Owner,
			Rotate:      e.refresh.Rotate,
			GetUserByID: getUserByID,
			RevokeAll: func(ctx context.Context, id string) error {
				_, err := e.refresh.RevokeAll(ctx, id)
				return err
			},
			IssueAccess: issueAccess,
			Warn:        e.logger.Warn,
		},
		Logout: flows.LogoutDeps{
			VerifyAccess: func(token string) (string, time.Time, error) {
				c, err := e.codec.Verify(token)
				if err != nil {
					return "", time.Time{}, err
				}
				return c.JTI(), c.Expiry(), nil
			},
			Now:           e.now,
			BlacklistAdd:  e.blacklist.Add,
			RevokeRefresh: e.refresh.Revoke,
			Warn:          e.logger.Warn,
		},
		Validate: flows.ValidateDeps{
			Verify: e.codec.Verify,
			BlacklistContains: func(ctx context.Context, jti string) (bool, error) {
				ok, err := e.blacklist.Contains(ctx, jti)
				return ok, unavailable(err)
			},
		},
	}
}
