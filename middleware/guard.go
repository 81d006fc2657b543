package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrEthical07/authcore"
)

type identityContextKey struct{}

// Validator is the subset of authcore.Engine used by Authenticate.
type Validator interface {
	ValidateAccess(ctx context.Context, token string) (*authcore.Identity, error)
}

// ActivityChecker is the subset of authcore.Engine used by RequireActive.
type ActivityChecker interface {
	IsActive(ctx context.Context, subjectID string) (bool, error)
}

// IdentityFromContext returns the identity injected by Authenticate.
func IdentityFromContext(ctx context.Context) (*authcore.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*authcore.Identity)
	return id, ok && id != nil
}

// WithIdentity attaches id to ctx.
func WithIdentity(ctx context.Context, id *authcore.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// Authenticate rejects requests without a valid, non-blacklisted bearer token
// and injects the identity for the next handler.
func Authenticate(v Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				unauthorized(w)
				return
			}

			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w)
				return
			}

			id, err := v.ValidateAccess(r.Context(), token)
			if err != nil {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole admits only identities carrying role. A missing identity means
// Authenticate was not mounted in front and is answered with 401.
func RequireRole(role authcore.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				unauthorized(w)
				return
			}
			if id.Role != role {
				forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireActive re-reads the account so that a disabled admin loses access
// before their token expires.
func RequireActive(c ActivityChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok || c == nil {
				unauthorized(w)
				return
			}
			active, err := c.IsActive(r.Context(), id.SubjectID)
			if err != nil {
				writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
				return
			}
			if !active {
				forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

func unauthorized(w http.ResponseWriter) {
	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func forbidden(w http.ResponseWriter) {
	writeJSONError(w, http.StatusForbidden, "forbidden")
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
