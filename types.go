package authledger

import (
	"context"

	internalaudit "github.com/mkarlin94/authledger/internal/audit"
	"github.com/mkarlin94/authledger/store"
)

// User is the principal record, re-exported from the store layer.
type User = store.User

// UserRepository is the storage capability the engine is constructed
// with. See [store.UserRepository] for the contract.
type UserRepository = store.UserRepository

// CreateUserInput is the input for [UserRepository.Create].
type CreateUserInput = store.CreateUserInput

// RegisterInput carries a registration request into the engine. Password
// is the plaintext secret; the engine owns hashing.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	AvatarRef   string
}

// AuthResult is returned by Login, Refresh, and FederatedLogin.
type AuthResult struct {
	UserID       string
	AccessToken  string
	RefreshToken string
}

// Principal identifies the authenticated subject attached to a request
// after access-token verification.
type Principal struct {
	UserID string
}

// IdentityClaims is the payload returned by a successful federated
// credential verification.
type IdentityClaims struct {
	Email   string
	Name    string
	Picture string
}

// IdentityVerifier verifies a third-party identity credential. The
// federated subpackage provides the OIDC implementation; tests supply
// fakes.
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (IdentityClaims, error)
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit
// dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// io.Writer, one object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer size.
var NewChannelSink = internalaudit.NewChannelSink

// NewJSONWriterSink creates a [JSONWriterSink] over w.
var NewJSONWriterSink = internalaudit.NewJSONWriterSink
