// Package rate provides fixed-window counters on Redis.
//
// # Window semantics
//
// INCR, then EXPIRE only when the increment produced 1. The first hit opens the
// window and every later hit in the window shares its TTL, so a counter never
// slides. Blocked decisions carry the remaining TTL as RetryAfter.
//
// Release hands one attempt back with a guarded DECR in a Lua script, so a
// caller can count up front and refund attempts that turned out not to matter.
//
// # What this package must NOT do
//
//   - Implement policy (which key, which limit); that lives in internal/limiters.
//   - Read-then-write: the counter is only ever advanced by INCR, and
//     admission is decided on the value that INCR returned.
package rate
