// Package stores holds Redis-backed stores used on the request hot path.
//
// # Stores
//
//   - [Blacklist]: revoked access-token jtis, one key per jti
//     ("blacklist:<jti>") with TTL equal to the token's remaining lifetime.
//
// Each call is a single round trip (SET EX / EXISTS). Redis failures are
// wrapped with [ErrBlacklistUnavailable]; callers must treat them as
// unavailability, never as "not blacklisted".
package stores
