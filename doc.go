// Package authledger provides the authentication and session/token
// lifecycle engine for a REST backend: registration with salted password
// hashing, login with JWT access/refresh token pairs, single-use refresh
// token rotation with revocation-on-reuse, idempotent logout, and
// federated login against an external identity provider.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authledger is the public surface. It exposes [Engine], [Builder],
// [Config], sentinel errors, and value types (AuthResult, Principal,
// MetricsSnapshot). Storage lives behind the [UserRepository] capability;
// the Redis implementation is in the store subpackage. Token signing is
// in jwt, hashing in password, the HTTP surface in httpapi, and the
// request guard in middleware.
//
// # Token lifecycle
//
// A refresh token moves ISSUED → CONSUMED on normal rotation: each
// refresh spends the presented token and appends its replacement, so a
// token is honored exactly once. A token presented after consumption is a
// replay signal; the engine clears the user's entire refresh-token ledger
// (REVOKED_ALL), logging out every session for that user. The only way
// back is a fresh login.
//
// # What this package must NOT do
//
//   - Expose Redis clients or storage layout details in its public API.
//   - Mutate the refresh-token ledger other than through [UserRepository].
//   - Distinguish "unknown email" from "wrong password" in any caller-visible way.
package authledger
