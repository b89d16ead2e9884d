// Package middleware adapts engine access-token validation to Gin
// request handling.
//
// [Guard] reads the Authorization header, calls Engine.Validate, and
// injects the authenticated [authledger.Principal] into the request
// context for downstream handlers to read via [PrincipalFromContext].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself; pass or reject is decided
// entirely by Engine.Validate.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Touch storage (Engine owns I/O).
//   - Make authorization decisions beyond pass/reject.
package middleware
