package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrEthical07/authcore"
)

type fakeValidator struct {
	tokens map[string]*authcore.Identity
	calls  int
}

func (f *fakeValidator) ValidateAccess(_ context.Context, token string) (*authcore.Identity, error) {
	f.calls++
	id, ok := f.tokens[token]
	if !ok {
		return nil, authcore.ErrInvalidToken
	}
	return id, nil
}

type fakeChecker struct {
	active bool
	err    error
}

func (f fakeChecker) IsActive(context.Context, string) (bool, error) { return f.active, f.err }

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			t.Fatal("handler reached without identity")
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func serve(h http.Handler, auth string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code
}

func TestAuthenticate(t *testing.T) {
	v := &fakeValidator{tokens: map[string]*authcore.Identity{
		"user-token":  {SubjectID: "u1", Role: authcore.RoleUser},
		"admin-token": {SubjectID: "a1", Role: authcore.RoleAdmin},
	}}
	h := Authenticate(v)(okHandler(t))

	tests := []struct {
		name string
		auth string
		want int
	}{
		{name: "missing header", auth: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", auth: "Basic user-token", want: http.StatusUnauthorized},
		{name: "empty bearer", auth: "Bearer ", want: http.StatusUnauthorized},
		{name: "unknown token", auth: "Bearer nope", want: http.StatusUnauthorized},
		{name: "valid", auth: "Bearer user-token", want: http.StatusNoContent},
		{name: "lowercase scheme", auth: "bearer user-token", want: http.StatusNoContent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := serve(h, tc.auth); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestRequireRoleLayeredAfterAuthenticate(t *testing.T) {
	v := &fakeValidator{tokens: map[string]*authcore.Identity{
		"user-token":  {SubjectID: "u1", Role: authcore.RoleUser},
		"admin-token": {SubjectID: "a1", Role: authcore.RoleAdmin},
	}}
	h := Authenticate(v)(RequireRole(authcore.RoleAdmin)(okHandler(t)))

	if got := serve(h, ""); got != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", got)
	}
	if got := serve(h, "Bearer user-token"); got != http.StatusForbidden {
		t.Fatalf("wrong role: expected 403, got %d", got)
	}
	if got := serve(h, "Bearer admin-token"); got != http.StatusNoContent {
		t.Fatalf("admin: expected 204, got %d", got)
	}
}

func TestRequireRoleWithoutIdentityIs401(t *testing.T) {
	h := RequireRole(authcore.RoleAdmin)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))
	if got := serve(h, "Bearer admin-token"); got != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", got)
	}
}

func TestRequireActive(t *testing.T) {
	v := &fakeValidator{tokens: map[string]*authcore.Identity{
		"admin-token": {SubjectID: "a1", Role: authcore.RoleAdmin},
	}}

	tests := []struct {
		name    string
		checker fakeChecker
		want    int
	}{
		{name: "active", checker: fakeChecker{active: true}, want: http.StatusNoContent},
		{name: "disabled", checker: fakeChecker{active: false}, want: http.StatusForbidden},
		{name: "store down", checker: fakeChecker{err: errors.New("down")}, want: http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := Authenticate(v)(RequireActive(tc.checker)(okHandler(t)))
			if got := serve(h, "Bearer admin-token"); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}
