// Package limiters provides the policy layer over internal/rate.
//
// # Limiters
//
//   - [LoginLimiter]: failed logins per client IP (default 5 per 15 min).
//     Attempt counts atomically before the password verify; Release refunds
//     attempts that succeeded or failed for reasons other than credentials.
//   - [VerificationLimiter]: verification-email sends per user (default 3 per hour),
//     counted before the email is sent.
//
// All limiters are nil-safe: calling any method on a nil receiver allows the request.
//
// # What this package must NOT do
//
//   - Import authcore or any sibling internal package except internal/rate.
//   - Reset counters; windows end only by TTL. Release refunds one attempt,
//     never more than were counted.
package limiters
