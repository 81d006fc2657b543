// Package flows contains the orchestration for every session operation.
//
// Each flow function (RunLogin, RunRefresh, RunLogout, RunValidate) accepts a
// typed dependency struct and returns a result or a classified failure. The
// Engine builds the dependency sets once and maps failures to its own errors.
//
// # Architecture boundaries
//
// Flows coordinate the credential verifier, token codec, refresh store,
// blacklist and rate limiter. They own none of them.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import authcore (to avoid import cycles).
//   - Perform I/O directly; all I/O goes through the dependency functions.
package flows
