package authcore_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/authcore"
)

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		email string
		pw    string
		want  error
	}{
		{name: "bad email", email: "not-an-email", pw: "Secret123!", want: authcore.ErrInvalidEmail},
		{name: "empty email", email: "   ", pw: "Secret123!", want: authcore.ErrInvalidEmail},
		{name: "short password", email: "a@x.com", pw: "short", want: authcore.ErrWeakPassword},
		{name: "long password", email: "a@x.com", pw: strings.Repeat("p", 129), want: authcore.ErrWeakPassword},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := h.engine.Register(ctx, tc.email, tc.pw); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	h.register(t, "a@x.com", "Secret123!")
	if _, err := h.engine.Register(ctx, "A@X.COM", "Secret123!"); !errors.Is(err, authcore.ErrEmailAlreadyExists) {
		t.Fatalf("expected duplicate email, got %v", err)
	}
}

func TestRegisterStoresArgon2Hash(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "a@x.com", "Secret123!")

	if !strings.HasPrefix(u.PasswordHash, "$argon2id$") {
		t.Fatalf("expected argon2id PHC hash, got %q", u.PasswordHash)
	}
	if u.Role != authcore.RoleUser || u.EmailVerified {
		t.Fatalf("unexpected new user state: %+v", u)
	}

	me, err := h.engine.Me(context.Background(), u.ID)
	if err != nil || me.Email != "a@x.com" {
		t.Fatalf("me: %+v / %v", me, err)
	}
	if _, err := h.engine.Me(context.Background(), "missing"); !errors.Is(err, authcore.ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSendVerificationAndVerify(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.register(t, "a@x.com", "Secret123!")

	if err := h.engine.SendVerification(ctx, u.ID); err != nil {
		t.Fatalf("send: %v", err)
	}
	token := h.mail.last()
	if len(token) != 64 {
		t.Fatalf("expected 64 hex chars, got %q", token)
	}

	if err := h.engine.VerifyEmail(ctx, "deadbeef"); !errors.Is(err, authcore.ErrVerificationInvalid) {
		t.Fatalf("expected invalid token, got %v", err)
	}
	if err := h.engine.VerifyEmail(ctx, token); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := h.engine.VerifyEmail(ctx, token); !errors.Is(err, authcore.ErrVerificationInvalid) {
		t.Fatalf("expected single use, got %v", err)
	}

	me, _ := h.engine.Me(ctx, u.ID)
	if !me.EmailVerified {
		t.Fatal("expected email to be verified")
	}
	if err := h.engine.SendVerification(ctx, u.ID); !errors.Is(err, authcore.ErrAlreadyVerified) {
		t.Fatalf("expected already verified, got %v", err)
	}
}

func TestSendVerificationResendLimit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.register(t, "a@x.com", "Secret123!")

	for i := 0; i < 3; i++ {
		if err := h.engine.SendVerification(ctx, u.ID); err != nil {
			t.Fatalf("send %d: %v", i+1, err)
		}
	}

	err := h.engine.SendVerification(ctx, u.ID)
	if !errors.Is(err, authcore.ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}
	if len(h.mail.tokens) != 3 {
		t.Fatalf("blocked send must not reach the sender, got %d sends", len(h.mail.tokens))
	}

	h.mr.FastForward(time.Hour)
	if err := h.engine.SendVerification(ctx, u.ID); err != nil {
		t.Fatalf("expected send in new window, got %v", err)
	}
}

func TestVerificationTokenExpires(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.register(t, "a@x.com", "Secret123!")

	if err := h.engine.SendVerification(ctx, u.ID); err != nil {
		t.Fatalf("send: %v", err)
	}
	h.clock.Advance(24 * time.Hour)

	if err := h.engine.VerifyEmail(ctx, h.mail.last()); !errors.Is(err, authcore.ErrVerificationInvalid) {
		t.Fatalf("expected expired token to be invalid, got %v", err)
	}
}

func TestSendVerificationSenderFailure(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "a@x.com", "Secret123!")
	h.mail.err = errors.New("smtp down")

	if err := h.engine.SendVerification(context.Background(), u.ID); !errors.Is(err, authcore.ErrDependencyUnavailable) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
}

func TestAdminListAndStats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for _, e := range []string{"a@x.com", "b@x.com", "c@y.com"} {
		h.register(t, e, "Secret123!")
		h.clock.Advance(time.Second)
	}

	page, err := h.engine.ListUsers(ctx, authcore.UserFilter{PerPage: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 3 || page.TotalPages != 2 || page.Page != 1 || len(page.Users) != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Users[0].Email != "c@y.com" {
		t.Fatalf("expected newest first, got %s", page.Users[0].Email)
	}

	stats, err := h.engine.UserStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalUsers != 3 || stats.VerifiedUsers != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if _, err := h.engine.GetUser(ctx, "missing"); !errors.Is(err, authcore.ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCleanupExpired(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.register(t, "a@x.com", "Secret123!")

	if _, err := h.engine.Login(ipCtx("10.0.0.1"), "a@x.com", "Secret123!"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := h.engine.SendVerification(ctx, u.ID); err != nil {
		t.Fatalf("send: %v", err)
	}

	res, err := h.engine.CleanupExpired(ctx, 0)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if res.RefreshTokens != 0 || res.Verifications != 0 {
		t.Fatalf("nothing should expire yet: %+v", res)
	}

	h.clock.Advance(h.engine.RefreshTTL() + time.Hour)
	res, err = h.engine.CleanupExpired(ctx, time.Minute)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if res.RefreshTokens != 1 || res.Verifications != 1 {
		t.Fatalf("unexpected cleanup result: %+v", res)
	}
}

func TestSecurityReport(t *testing.T) {
	h := newHarness(t)

	r := h.engine.SecurityReport()
	if r.SigningAlgorithm != "HS256" {
		t.Fatalf("unexpected alg %q", r.SigningAlgorithm)
	}
	if r.AccessTTL != 30*time.Minute || r.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("unexpected ttls %v / %v", r.AccessTTL, r.RefreshTTL)
	}
	if r.LoginMaxAttempts != 5 || r.VerificationMaxSends != 3 {
		t.Fatalf("unexpected limits %+v", r)
	}
	if !r.EmailVerificationActive {
		t.Fatal("expected email verification to be active")
	}
	if r.Argon2.Memory != 8*1024 {
		t.Fatalf("unexpected argon2 memory %d", r.Argon2.Memory)
	}
}
