package authledger

import (
	"context"
	"errors"
	"time"

	internalaudit "github.com/mkarlin94/authledger/internal/audit"
	"github.com/mkarlin94/authledger/internal/rate"
	"github.com/mkarlin94/authledger/jwt"
	"github.com/mkarlin94/authledger/password"
	"github.com/mkarlin94/authledger/store"
)

// Engine orchestrates the credential lifecycle. Build one through
// [Builder.Build]; it is immutable and safe for concurrent use
// afterwards.
type Engine struct {
	config       Config
	users        UserRepository
	jwtManager   *jwt.Manager
	passwordHash *password.Hasher
	rateLimiter  *rate.Limiter
	verifier     IdentityVerifier
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
}

// Close drains the audit dispatcher. Call it on shutdown.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were dropped because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// Validate verifies an access token without touching storage and returns
// the authenticated principal. Any failure — absent, expired, malformed,
// wrong signature — is [ErrUnauthorized].
func (e *Engine) Validate(tokenStr string) (*Principal, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	if tokenStr == "" {
		return nil, ErrUnauthorized
	}

	claims, err := e.jwtManager.Parse(tokenStr)
	if err != nil {
		e.metricInc(MetricValidateRejected)
		return nil, ErrUnauthorized
	}

	return &Principal{UserID: claims.UID}, nil
}

// GetUser loads the profile record for an authenticated principal. A
// vanished user maps to [ErrUnauthorized]: the caller holds a token for
// an account that no longer exists.
func (e *Engine) GetUser(ctx context.Context, userID string) (User, error) {
	if e == nil || e.users == nil {
		return User{}, ErrEngineNotReady
	}
	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return User{}, ErrUnauthorized
		}
		return User{}, err
	}
	return user, nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emitAudit(ctx context.Context, eventType, userID string, success bool, opErr error, metadata map[string]string) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	e.audit.Emit(ctx, event)
}

// issueAndRecord mints a fresh pair and appends the refresh half to the
// user's ledger. Mint-then-persist ordering is deliberate: a token is
// never honored before it is ledgered.
func (e *Engine) issueAndRecord(ctx context.Context, userID string) (*AuthResult, error) {
	pair, err := e.jwtManager.IssuePair(userID)
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(e.config.JWT.RefreshTTL)
	if err := e.users.RecordRefreshToken(ctx, userID, pair.RefreshToken, expiresAt); err != nil {
		return nil, err
	}
	return &AuthResult{
		UserID:       userID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func mapRateErr(err error, mapped error) error {
	if errors.Is(err, rate.ErrRateLimited) {
		return mapped
	}
	return err
}
