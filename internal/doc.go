// Package internal holds helpers private to authcore: opaque token generation
// and the SHA-256 digest that is the only form in which tokens are stored.
//
// # Sub-packages
//
//   - config: service configuration loaded with cleanenv
//   - flows: login / refresh / logout / validate orchestration with injected deps
//   - limiters: login and verification-resend policies
//   - logctx: request-scoped slog logger in a context
//   - rate: fixed-window counters on Redis
//   - stores: Redis-backed access-token blacklist
//
// # What this package must NOT do
//
//   - Export types that appear in the public authcore API.
package internal
