// Package authcore is the authentication and session-lifecycle core: short-lived
// HS256 access tokens, single-use rotating refresh tokens, a Redis blacklist for
// immediate revocation, fixed-window rate limits on login and verification
// email, and the account operations around them.
//
// Engine methods are safe to call from multiple goroutines after [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config], the
// collaborator interfaces ([UserStore], [RefreshTokenStore], [VerificationStore],
// [EmailSender]) and value types. Flow orchestration, rate limiting and the
// blacklist live under internal/.
//
// Around the engine:
//
//   - password, jwt: the argon2id verifier and the HS256 codec
//   - store/memory, store/postgres: collaborator implementations
//   - email: SendGrid, Mailgun and log senders
//   - middleware, httpapi: the HTTP gates and the chi-based service surface
//   - metrics/export: Prometheus and OpenTelemetry bindings
//   - cmd/authd: the service binary
//
// The relational store and the key-value store are separate consistency
// boundaries. Revoking a refresh token does not blacklist access tokens
// already issued from it; they stay valid until their own expiry.
//
// # What this package must NOT do
//
//   - Expose Redis clients or internal stores in its public API.
//   - Hold per-session state in process.
//   - Treat a failed or timed-out dependency call as success.
package authcore
