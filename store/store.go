package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUserNotFound reports a lookup for an unknown user.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken reports a duplicate email on create.
	ErrEmailTaken = errors.New("email already registered")
	// ErrTokenReused reports a refresh token absent from the ledger:
	// forged, already consumed, or revoked. The ledger is cleared as a
	// side effect before this error is returned.
	ErrTokenReused = errors.New("refresh token reuse detected")
)

// User is the principal record. RefreshTokens mirrors the ledger as of
// the read; it is never mutated in place by callers.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	DisplayName   string
	AvatarRef     string
	RefreshTokens []string
	CreatedAt     time.Time
}

// CreateUserInput is the input for [UserRepository.Create]. The store
// assigns the ID.
type CreateUserInput struct {
	Email        string
	PasswordHash string
	DisplayName  string
	AvatarRef    string
}

// UserRepository is the storage capability the engine is constructed
// with. Implementations must make Create fail with [ErrEmailTaken] on a
// duplicate email rather than overwrite, and must make
// ConsumeRefreshToken atomic: at most one concurrent call can
// successfully consume a given token value.
type UserRepository interface {
	Create(ctx context.Context, input CreateUserInput) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)

	// RecordRefreshToken appends token to the user's ledger together
	// with its expiry, which lets implementations drop entries from
	// abandoned sessions instead of holding them forever.
	RecordRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error

	// ConsumeRefreshToken removes exactly the matched token from the
	// user's ledger and returns the user for the caller to continue.
	// If the token is absent the entire ledger is cleared and the call
	// fails with [ErrTokenReused].
	ConsumeRefreshToken(ctx context.Context, userID, token string) (User, error)
}
