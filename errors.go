package authledger

import "errors"

var (
	// ErrValidation reports a malformed request rejected before any
	// business logic ran.
	ErrValidation = errors.New("invalid request")
	// ErrEmailTaken reports a duplicate email on register.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers wrong password, unknown email,
	// expired/malformed/replayed/forged tokens, and failed federated
	// verification. Deliberately undifferentiated: callers must not be
	// able to tell which check failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingToken reports a refresh or logout call without a token.
	ErrMissingToken = errors.New("missing refresh token")
	// ErrUnauthorized reports a missing or unverifiable access token on
	// a protected route.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrLoginRateLimited reports an exhausted login attempt budget.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrRefreshRateLimited reports an exhausted refresh attempt budget.
	ErrRefreshRateLimited = errors.New("refresh rate limited")
	// ErrEngineNotReady reports a call on an engine missing a required
	// dependency (signing misconfiguration, absent verifier).
	ErrEngineNotReady = errors.New("engine not initialized")
)
