package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/authcore/jwt"
)

func ownerU1(context.Context, string) (string, error) { return "u1", nil }

func TestRunRefreshDisabledRevokesAll(t *testing.T) {
	revoked := ""
	res := RunRefresh(context.Background(), "raw", RefreshDeps{
		Lookup: ownerU1,
		Rotate: func(context.Context, string) (string, string, time.Time, error) {
			t.Fatal("disabled user's token must not be rotated")
			return "", "", time.Time{}, nil
		},
		GetUserByID: func(context.Context, string) (Subject, error) {
			return Subject{ID: "u1", Disabled: true}, nil
		},
		RevokeAll: func(_ context.Context, id string) error {
			revoked = id
			return nil
		},
		IssueAccess: func(Subject) (AccessToken, error) {
			t.Fatal("disabled user must not receive an access token")
			return AccessToken{}, nil
		},
	})

	if res.Failure != RefreshFailureAccountDisabled || revoked != "u1" {
		t.Fatalf("unexpected result %+v revoked=%q", res, revoked)
	}
}

func TestRunRefreshLookupFailureStopsEarly(t *testing.T) {
	used := errors.New("already used")
	res := RunRefresh(context.Background(), "raw", RefreshDeps{
		Lookup: func(context.Context, string) (string, error) { return "", used },
		GetUserByID: func(context.Context, string) (Subject, error) {
			t.Fatal("user lookup after failed token lookup")
			return Subject{}, nil
		},
	})
	if res.Failure != RefreshFailureLookup || !errors.Is(res.Err, used) {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRunRefreshTransientFailuresKeepToken(t *testing.T) {
	down := errors.New("store down")
	tests := []struct {
		name  string
		user  func(context.Context, string) (Subject, error)
		issue func(Subject) (AccessToken, error)
		want  RefreshFailureKind
	}{
		{
			name: "user lookup",
			user: func(context.Context, string) (Subject, error) { return Subject{}, down },
			want: RefreshFailureUserLookup,
		},
		{
			name:  "issue access",
			user:  func(context.Context, string) (Subject, error) { return Subject{ID: "u1"}, nil },
			issue: func(Subject) (AccessToken, error) { return AccessToken{}, down },
			want:  RefreshFailureIssueAccess,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := RunRefresh(context.Background(), "raw", RefreshDeps{
				Lookup:      ownerU1,
				GetUserByID: tc.user,
				IssueAccess: tc.issue,
				Rotate: func(context.Context, string) (string, string, time.Time, error) {
					t.Fatal("token consumed before a transient failure")
					return "", "", time.Time{}, nil
				},
			})
			if res.Failure != tc.want || !errors.Is(res.Err, down) {
				t.Fatalf("unexpected result %+v", res)
			}
		})
	}
}

func TestRunRefreshRotateLosesRace(t *testing.T) {
	used := errors.New("already used")
	res := RunRefresh(context.Background(), "raw", RefreshDeps{
		Lookup:      ownerU1,
		GetUserByID: func(context.Context, string) (Subject, error) { return Subject{ID: "u1"}, nil },
		IssueAccess: func(Subject) (AccessToken, error) { return AccessToken{Token: "a"}, nil },
		Rotate: func(context.Context, string) (string, string, time.Time, error) {
			return "", "", time.Time{}, used
		},
	})
	if res.Failure != RefreshFailureRotate || !errors.Is(res.Err, used) || res.Access.Token != "" {
		t.Fatalf("losing rotation must not return an access token: %+v", res)
	}
}

func TestRunRefreshIssuesWithCurrentRole(t *testing.T) {
	res := RunRefresh(context.Background(), "raw", RefreshDeps{
		Lookup: ownerU1,
		Rotate: func(context.Context, string) (string, string, time.Time, error) {
			return "next", "u1", time.Time{}, nil
		},
		GetUserByID: func(context.Context, string) (Subject, error) {
			return Subject{ID: "u1", Role: "admin"}, nil
		},
		IssueAccess: func(s Subject) (AccessToken, error) {
			return AccessToken{Token: s.ID + ":" + s.Role}, nil
		},
	})
	if res.Failure != RefreshFailureNone || res.Access.Token != "u1:admin" || res.RefreshToken != "next" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRunLogoutIsBestEffort(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	var gotTTL time.Duration
	res := RunLogout(context.Background(), "access", "refresh", LogoutDeps{
		VerifyAccess: func(string) (string, time.Time, error) {
			return "jti-1", now.Add(90 * time.Second), nil
		},
		Now: func() time.Time { return now },
		BlacklistAdd: func(_ context.Context, _ string, ttl time.Duration) error {
			gotTTL = ttl
			return errors.New("redis down")
		},
		RevokeRefresh: func(context.Context, string) error { return nil },
	})

	if gotTTL != 90*time.Second {
		t.Fatalf("expected remaining lifetime as ttl, got %v", gotTTL)
	}
	if res.Blacklisted || !res.RefreshRevoked || res.JTI != "jti-1" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRunLogoutSkipsInvalidAccess(t *testing.T) {
	res := RunLogout(context.Background(), "expired", "", LogoutDeps{
		VerifyAccess: func(string) (string, time.Time, error) {
			return "", time.Time{}, jwt.ErrExpired
		},
		BlacklistAdd: func(context.Context, string, time.Duration) error {
			t.Fatal("invalid token must not be blacklisted")
			return nil
		},
	})
	if res.Blacklisted || res.RefreshRevoked {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRunValidateOrdering(t *testing.T) {
	claims := &jwt.Claims{}
	claims.ID = "jti-1"

	tests := []struct {
		name      string
		verifyErr error
		listed    bool
		listErr   error
		want      ValidateFailureKind
	}{
		{name: "valid", want: ValidateFailureNone},
		{name: "bad token", verifyErr: jwt.ErrMalformed, want: ValidateFailureToken},
		{name: "blacklisted", listed: true, want: ValidateFailureBlacklisted},
		{name: "blacklist down", listErr: errors.New("down"), want: ValidateFailureBlacklistUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			consulted := false
			res := RunValidate(context.Background(), "tok", ValidateDeps{
				Verify: func(string) (*jwt.Claims, error) {
					if tc.verifyErr != nil {
						return nil, tc.verifyErr
					}
					return claims, nil
				},
				BlacklistContains: func(_ context.Context, jti string) (bool, error) {
					consulted = true
					if jti != "jti-1" {
						t.Fatalf("unexpected jti %q", jti)
					}
					return tc.listed, tc.listErr
				},
			})
			if res.Failure != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, res.Failure)
			}
			if tc.verifyErr != nil && consulted {
				t.Fatal("blacklist consulted for an unverified token")
			}
		})
	}
}
