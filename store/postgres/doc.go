// Package postgres implements the authcore store interfaces on PostgreSQL
// through pgx, with goose migrations embedded in the binary.
//
// Refresh-token rotation relies on a conditional update
// (used_at IS NULL AND revoked_at IS NULL AND expires_at > now) inside the
// same transaction as the insert of the successor, so that of two concurrent
// rotations of one token exactly one commits.
package postgres
