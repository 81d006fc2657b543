// Package middleware exposes the HTTP gates built on authcore.Engine.
//
// # Gates
//
//   - [Authenticate]: bearer token, Engine.ValidateAccess, identity injection.
//   - [RequireRole]: role check, layered after Authenticate.
//   - [RequireActive]: rejects identities whose account has since been disabled.
//
// Every authentication failure is a bare 401. Authorization failures are 403.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis or the relational store (Engine handles I/O).
package middleware
