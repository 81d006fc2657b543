package limiters

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newCounter(t *testing.T) (*rate.Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rate.New(rdb, rate.Config{Prefix: "ratelimit:"}), mr
}

func TestLoginLimiterBlocksSixthAttempt(t *testing.T) {
	counter, mr := newCounter(t)
	l := NewLoginLimiter(counter, LoginConfig{MaxAttempts: 5, Window: 15 * time.Minute})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := l.Attempt(ctx, "10.0.0.1"); err != nil {
			t.Fatalf("attempt %d blocked early: %v", i+1, err)
		}
	}

	err := l.Attempt(ctx, "10.0.0.1")
	var blocked *BlockedError
	if !errors.As(err, &blocked) || !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected BlockedError, got %v", err)
	}
	if blocked.RetryAfter <= 0 || blocked.RetryAfter > 15*time.Minute {
		t.Fatalf("unexpected retry after %v", blocked.RetryAfter)
	}

	if err := l.Attempt(ctx, "10.0.0.2"); err != nil {
		t.Fatalf("other IP should be unaffected: %v", err)
	}
	if !mr.Exists("ratelimit:login:10.0.0.1") {
		t.Fatal("expected ratelimit:login:<ip> key")
	}
}

func TestLoginLimiterConcurrentAttempts(t *testing.T) {
	counter, _ := newCounter(t)
	l := NewLoginLimiter(counter, LoginConfig{MaxAttempts: 5, Window: 15 * time.Minute})
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		admitted atomic.Int32
		blocked  atomic.Int32
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch err := l.Attempt(ctx, "10.0.0.9"); {
			case err == nil:
				admitted.Add(1)
			case errors.Is(err, ErrRateLimited):
				blocked.Add(1)
			default:
				t.Errorf("Attempt: %v", err)
			}
		}()
	}
	wg.Wait()

	if admitted.Load() != 5 || blocked.Load() != 25 {
		t.Fatalf("admitted=%d blocked=%d, want 5/25", admitted.Load(), blocked.Load())
	}
}

func TestLoginLimiterReleaseFreesSlot(t *testing.T) {
	counter, _ := newCounter(t)
	l := NewLoginLimiter(counter, LoginConfig{MaxAttempts: 2, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := l.Attempt(ctx, "10.0.0.3"); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
		if err := l.Release(ctx, "10.0.0.3"); err != nil {
			t.Fatalf("release %d: %v", i+1, err)
		}
	}
}

func TestVerificationLimiterAllowsThreePerWindow(t *testing.T) {
	counter, mr := newCounter(t)
	l := NewVerificationLimiter(counter, VerificationConfig{MaxSends: 3, Window: time.Hour})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.Allow(ctx, "user-1"); err != nil {
			t.Fatalf("send %d: %v", i+1, err)
		}
	}
	if err := l.Allow(ctx, "user-1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected 4th send blocked, got %v", err)
	}

	mr.FastForward(time.Hour)
	if err := l.Allow(ctx, "user-1"); err != nil {
		t.Fatalf("expected new window to allow: %v", err)
	}
}

func TestNilLimitersAllow(t *testing.T) {
	var login *LoginLimiter
	var verify *VerificationLimiter
	ctx := context.Background()

	if err := login.Attempt(ctx, "ip"); err != nil {
		t.Fatalf("nil login Attempt: %v", err)
	}
	if err := login.Release(ctx, "ip"); err != nil {
		t.Fatalf("nil login Release: %v", err)
	}
	if err := verify.Allow(ctx, "u"); err != nil {
		t.Fatalf("nil verify Allow: %v", err)
	}
}
