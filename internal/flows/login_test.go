package flows

import (
	"context"
	"errors"
	"testing"
	"time"
)

var (
	errNotReady  = errors.New("not ready")
	errInvalid   = errors.New("invalid credentials")
	errDisabled  = errors.New("disabled")
	errNotFound  = errors.New("not found")
	errRateLimit = errors.New("rate limited")
	errStoreDown = errors.New("store down")
)

type loginRecorder struct {
	checks   int
	releases int
	verifies []string
	metrics  []int
	touched  bool
}

func testLoginDeps(rec *loginRecorder, users map[string]Subject) LoginDeps {
	return LoginDeps{
		CheckRate: func(context.Context, string) error {
			rec.checks++
			return nil
		},
		ReleaseRate: func(context.Context, string) error {
			rec.releases++
			return nil
		},
		GetUserByEmail: func(_ context.Context, email string) (Subject, error) {
			u, ok := users[email]
			if !ok {
				return Subject{}, errNotFound
			}
			return u, nil
		},
		VerifyPassword: func(pw, hash string) (bool, error) {
			rec.verifies = append(rec.verifies, hash)
			return pw == "right", nil
		},
		DummyHash: "dummy",
		IssueAccess: func(s Subject) (AccessToken, error) {
			return AccessToken{Token: "access-" + s.ID, JTI: "j"}, nil
		},
		IssueRefresh: func(context.Context, string) (string, time.Time, error) {
			return "refresh", time.Time{}, nil
		},
		TouchLastLogin: func(context.Context, string) { rec.touched = true },
		MetricInc:      func(id int) { rec.metrics = append(rec.metrics, id) },
		Metrics:        LoginMetrics{LoginSuccess: 1, LoginFailure: 2, LoginRateLimited: 3},
		Errors: LoginErrors{
			EngineNotReady:     errNotReady,
			InvalidCredentials: errInvalid,
			AccountDisabled:    errDisabled,
			UserNotFound:       errNotFound,
			RateLimited:        errRateLimit,
		},
	}
}

func TestRunLoginSuccess(t *testing.T) {
	rec := &loginRecorder{}
	deps := testLoginDeps(rec, map[string]Subject{"a@x.com": {ID: "u1", Role: "user", PasswordHash: "h1"}})

	res, err := RunLogin(context.Background(), "a@x.com", "right", deps)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Access.Token != "access-u1" || res.RefreshToken != "refresh" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if rec.checks != 1 || rec.releases != 1 || !rec.touched {
		t.Fatalf("success must count then release its attempt: %+v", rec)
	}
}

func TestRunLoginCountsEveryFailureKind(t *testing.T) {
	users := map[string]Subject{
		"a@x.com": {ID: "u1", PasswordHash: "h1"},
		"d@x.com": {ID: "u2", PasswordHash: "h2", Disabled: true},
	}
	tests := []struct {
		name       string
		email, pw  string
		want       error
		wantVerify string
	}{
		{name: "unknown email", email: "nobody@x.com", pw: "right", want: errInvalid, wantVerify: "dummy"},
		{name: "wrong password", email: "a@x.com", pw: "wrong", want: errInvalid, wantVerify: "h1"},
		{name: "disabled", email: "d@x.com", pw: "right", want: errDisabled, wantVerify: "h2"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &loginRecorder{}
			_, err := RunLogin(context.Background(), tc.email, tc.pw, testLoginDeps(rec, users))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if rec.checks != 1 || rec.releases != 0 {
				t.Fatalf("failure must keep its counted attempt: %+v", rec)
			}
			if len(rec.verifies) != 1 || rec.verifies[0] != tc.wantVerify {
				t.Fatalf("expected one verify against %q, got %v", tc.wantVerify, rec.verifies)
			}
		})
	}
}

func TestRunLoginBlockedSkipsVerification(t *testing.T) {
	rec := &loginRecorder{}
	deps := testLoginDeps(rec, map[string]Subject{"a@x.com": {ID: "u1", PasswordHash: "h1"}})
	deps.CheckRate = func(context.Context, string) error { return errRateLimit }

	_, err := RunLogin(context.Background(), "a@x.com", "right", deps)
	if !errors.Is(err, errRateLimit) {
		t.Fatalf("expected rate limited, got %v", err)
	}
	if len(rec.verifies) != 0 || rec.releases != 0 {
		t.Fatalf("blocked login must not verify or release: %+v", rec)
	}
	if len(rec.metrics) != 1 || rec.metrics[0] != 3 {
		t.Fatalf("expected rate limited metric, got %v", rec.metrics)
	}
}

func TestRunLoginStoreFailureIsNotCredentialFailure(t *testing.T) {
	rec := &loginRecorder{}
	deps := testLoginDeps(rec, nil)
	deps.GetUserByEmail = func(context.Context, string) (Subject, error) { return Subject{}, errStoreDown }

	_, err := RunLogin(context.Background(), "a@x.com", "right", deps)
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if rec.releases != 1 {
		t.Fatalf("store failure must give the attempt back, releases=%d", rec.releases)
	}
}

func TestRunLoginNotReady(t *testing.T) {
	_, err := RunLogin(context.Background(), "a", "b", LoginDeps{Errors: LoginErrors{EngineNotReady: errNotReady}})
	if !errors.Is(err, errNotReady) {
		t.Fatalf("expected not ready, got %v", err)
	}
}
