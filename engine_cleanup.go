package authcore

import (
	"context"
	"time"
)

// CleanupResult counts rows removed by CleanupExpired.
type CleanupResult struct {
	RefreshTokens int64
	Verifications int64
}

// CleanupExpired deletes refresh tokens that expired more than retention ago
// and every expired verification token.
func (e *Engine) CleanupExpired(ctx context.Context, retention time.Duration) (CleanupResult, error) {
	var res CleanupResult
	now := e.now().UTC()

	if e.refresh != nil {
		ctx, cancel := e.storeCtx(ctx)
		n, err := e.refresh.store.DeleteExpired(ctx, now.Add(-retention))
		cancel()
		if err != nil {
			return res, e.dependencyError(unavailable(err))
		}
		res.RefreshTokens = n
	}

	if e.verifications != nil {
		ctx, cancel := e.storeCtx(ctx)
		n, err := e.verifications.DeleteExpiredVerifications(ctx, now)
		cancel()
		if err != nil {
			return res, e.dependencyError(unavailable(err))
		}
		res.Verifications = n
	}

	return res, nil
}

// RunJanitor calls CleanupExpired every interval until ctx is done.
func (e *Engine) RunJanitor(ctx context.Context, interval, retention time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			res, err := e.CleanupExpired(ctx, retention)
			if err != nil {
				e.logger.WarnContext(ctx, "authcore: janitor run failed", "error", err)
				continue
			}
			e.logger.InfoContext(ctx, "authcore: janitor run",
				"refresh_tokens", res.RefreshTokens,
				"verifications", res.Verifications,
			)
		}
	}
}
