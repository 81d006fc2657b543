// Package jwt issues and verifies HS256 access tokens.
//
// Tokens carry sub, role, jti, iat and exp. Verification checks the signature
// before any claim, then rejects a token once now >= exp. Failures are
// classified into exactly one of [ErrExpired], [ErrInvalidSignature] or
// [ErrMalformed] so callers can log them apart while answering the same way.
//
// # What this package must NOT do
//
//   - Consult the blacklist or any store; revocation lives above the codec.
//   - Hold the signing secret in package state.
package jwt
