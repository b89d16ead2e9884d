// Package jwt mints and verifies the signed token pairs used by authledger.
//
// Access and refresh tokens share one claims shape — the subject's user ID
// plus a random nonce — and differ only in TTL. The nonce guarantees that
// two pairs minted in the same instant for the same subject are never
// byte-identical. Verification reports expiry ([ErrTokenExpired]) and
// structural/signature failures ([ErrTokenMalformed]) as distinct errors:
// an expired token is retryable through the refresh flow, a malformed one
// requires a fresh login.
//
// Supported signing methods are HS256 with a shared secret and Ed25519
// with a PEM or raw key pair.
package jwt
