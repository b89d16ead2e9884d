// Package httpapi mounts the credential lifecycle on a Gin router.
//
// Routes:
//
//	POST /auth/register         create an account (no tokens issued)
//	POST /auth/login            password login, issues a token pair
//	POST /auth/refresh          rotate a refresh token
//	POST /auth/logout           retire a refresh token (idempotent)
//	POST /auth/federated-login  external identity-provider login
//	GET  /auth/me               profile of the authenticated caller
//
// The refresh token travels in an HTTP-only cookie for browser clients;
// every handler that reads it falls back to the JSON body so API
// clients work without cookie jars.
//
// # Architecture boundaries
//
// Handlers translate HTTP to engine calls and back. All authentication
// decisions live in the engine; this package owns only request shapes,
// status codes, and cookie plumbing.
package httpapi
