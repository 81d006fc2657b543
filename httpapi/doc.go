// Package httpapi exposes the authcore engine as a JSON HTTP API on a chi
// router.
//
// Access tokens travel in the Authorization header. Refresh tokens travel only
// in the refresh_token cookie, scoped to /auth. Error responses have the shape
// {"error": "<message>"}. Every status code decision lives in writeError.
package httpapi
