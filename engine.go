package authcore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/MrEthical07/authcore/internal/flows"
	"github.com/MrEthical07/authcore/internal/limiters"
	"github.com/MrEthical07/authcore/internal/stores"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/password"
)

// Engine is the session service. It is safe for concurrent use and holds no
// per-session state in process; everything lives in the two stores.
type Engine struct {
	config Config
	logger *slog.Logger
	now    func() time.Time

	metrics      *Metrics
	passwordHash *password.Argon2
	dummyHash    string
	codec        *jwt.Codec
	validate     *validator.Validate

	refresh             *RefreshTokens
	blacklist           *stores.Blacklist
	loginLimiter        *limiters.LoginLimiter
	verificationLimiter *limiters.VerificationLimiter

	users         UserStore
	verifications VerificationStore
	email         EmailSender

	flowDeps flows.Deps
}

// Close releases engine resources. Store connections belong to the caller.
func (e *Engine) Close() {}

// MetricsSnapshot returns a copy of the engine counters and histograms.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AccessTTL is the lifetime of issued access tokens.
func (e *Engine) AccessTTL() time.Duration { return e.config.JWT.AccessTTL }

// RefreshTTL is the lifetime of issued refresh tokens.
func (e *Engine) RefreshTTL() time.Duration { return e.config.Refresh.TTL }

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observe(id MetricID, start time.Time) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, time.Since(start))
}

// Login verifies credentials and issues an access and refresh token pair.
// The caller's IP, attached with WithClientIP, keys the failed-login limit.
func (e *Engine) Login(ctx context.Context, email, password string) (*Tokens, error) {
	start := time.Now()
	defer e.observe(MetricLoginLatency, start)

	res, err := flows.RunLogin(ctx, normalizeEmail(email), password, e.flowDeps.Login)
	if err != nil {
		return nil, e.dependencyError(err)
	}

	return &Tokens{
		AccessToken:      res.Access.Token,
		TokenType:        "Bearer",
		ExpiresIn:        e.config.JWT.AccessTTL,
		RefreshToken:     res.RefreshToken,
		RefreshExpiresAt: res.RefreshExpiresAt,
	}, nil
}

// Refresh rotates raw and returns a fresh token pair. Presenting a token that
// was already rotated yields ErrTokenAlreadyUsed; nothing is reissued.
func (e *Engine) Refresh(ctx context.Context, raw string) (*Tokens, error) {
	start := time.Now()
	defer e.observe(MetricRefreshLatency, start)

	res := flows.RunRefresh(ctx, raw, e.flowDeps.Refresh)
	switch res.Failure {
	case flows.RefreshFailureNone:
	case flows.RefreshFailureAccountDisabled:
		e.metricInc(MetricRefreshFailure)
		return nil, ErrAccountDisabled
	default:
		e.metricInc(MetricRefreshFailure)
		if errors.Is(res.Err, ErrTokenAlreadyUsed) {
			e.metricInc(MetricRefreshReuseDetected)
			e.logger.WarnContext(ctx, "authcore: refresh token reuse")
		}
		if errors.Is(res.Err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, e.dependencyError(res.Err)
	}

	e.metricInc(MetricRefreshSuccess)
	return &Tokens{
		AccessToken:      res.Access.Token,
		TokenType:        "Bearer",
		ExpiresIn:        e.config.JWT.AccessTTL,
		RefreshToken:     res.RefreshToken,
		RefreshExpiresAt: res.RefreshExpiresAt,
	}, nil
}

// Logout blacklists accessToken for its remaining lifetime and revokes
// refreshToken. Either may be empty. Logout never fails; calling it twice is
// harmless.
func (e *Engine) Logout(ctx context.Context, accessToken, refreshToken string) {
	res := flows.RunLogout(ctx, accessToken, refreshToken, e.flowDeps.Logout)
	if res.Blacklisted || res.RefreshRevoked {
		e.metricInc(MetricLogout)
	}
}

// ValidateAccess verifies an access token and checks the blacklist. A
// blacklist read failure returns ErrDependencyUnavailable, never an identity.
func (e *Engine) ValidateAccess(ctx context.Context, token string) (*Identity, error) {
	start := time.Now()
	defer e.observe(MetricValidateLatency, start)

	res := flows.RunValidate(ctx, token, e.flowDeps.Validate)
	switch res.Failure {
	case flows.ValidateFailureNone:
	case flows.ValidateFailureToken:
		e.metricInc(MetricValidateRejected)
		if errors.Is(res.Err, jwt.ErrExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	case flows.ValidateFailureBlacklisted:
		e.metricInc(MetricValidateRejected)
		e.metricInc(MetricBlacklistHit)
		return nil, ErrTokenRevoked
	default:
		e.metricInc(MetricValidateRejected)
		return nil, e.dependencyError(res.Err)
	}

	e.metricInc(MetricValidateSuccess)
	c := res.Claims
	return &Identity{
		SubjectID: c.SubjectID(),
		Role:      Role(c.Role),
		JTI:       c.JTI(),
		ExpiresAt: c.Expiry(),
	}, nil
}

// dependencyError counts and normalizes infrastructure failures. Domain
// errors pass through.
func (e *Engine) dependencyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDependencyUnavailable) {
		e.metricInc(MetricDependencyUnavailable)
	}
	return err
}

func (e *Engine) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, e.config.Timeouts.Store)
}

// rateError converts limiter failures into the engine taxonomy.
func rateError(err error) error {
	if err == nil {
		return nil
	}
	var blocked *limiters.BlockedError
	if errors.As(err, &blocked) {
		return &RateLimitedError{RetryAfter: blocked.RetryAfter}
	}
	return unavailable(err)
}

func toSubject(u User) flows.Subject {
	return flows.Subject{
		ID:           u.ID,
		Role:         string(u.Role),
		PasswordHash: u.PasswordHash,
		Disabled:     u.Disabled(),
	}
}
