package authcore

import (
	"context"
	"errors"

	"github.com/MrEthical07/authcore/internal"
)

// SendVerification mails a fresh verification token to the subject. The
// per-user resend budget is spent before anything is created or sent.
func (e *Engine) SendVerification(ctx context.Context, subjectID string) error {
	if e.verifications == nil || e.email == nil {
		return ErrEngineNotReady
	}

	u, err := e.getUser(ctx, subjectID)
	if err != nil {
		return err
	}
	if u.EmailVerified {
		return ErrAlreadyVerified
	}

	if err := rateError(e.verificationLimiter.Allow(ctx, u.ID)); err != nil {
		if errors.Is(err, ErrRateLimited) {
			e.metricInc(MetricVerificationRateLimited)
		}
		return e.dependencyError(err)
	}

	token, err := internal.NewVerificationToken()
	if err != nil {
		return err
	}
	expiresAt := e.now().UTC().Add(e.config.EmailVerification.TokenTTL)

	sctx, cancel := e.storeCtx(ctx)
	err = e.verifications.CreateVerification(sctx, u.ID, internal.HashToken(token), expiresAt)
	cancel()
	if err != nil {
		return e.dependencyError(unavailable(err))
	}

	if err := e.email.SendVerificationEmail(ctx, u.Email, token); err != nil {
		e.logger.WarnContext(ctx, "authcore: verification email not sent", "user_id", u.ID, "error", err)
		return e.dependencyError(unavailable(err))
	}

	e.metricInc(MetricVerificationSent)
	return nil
}

// VerifyEmail consumes token and marks its owner verified. Tokens are single
// use; a missing or expired token yields ErrVerificationInvalid.
func (e *Engine) VerifyEmail(ctx context.Context, token string) error {
	if e.verifications == nil || e.users == nil {
		return ErrEngineNotReady
	}
	if token == "" {
		return ErrVerificationInvalid
	}

	ctx, cancel := e.storeCtx(ctx)
	defer cancel()

	userID, err := e.verifications.ConsumeVerification(ctx, internal.HashToken(token), e.now().UTC())
	if err != nil {
		return e.dependencyError(unavailable(err, ErrVerificationInvalid))
	}

	if err := e.users.MarkEmailVerified(ctx, userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrVerificationInvalid
		}
		return e.dependencyError(unavailable(err))
	}

	e.metricInc(MetricEmailVerified)
	return nil
}
