package authledger

import (
	"context"
	"errors"

	"github.com/mkarlin94/authledger/store"
)

const (
	auditEventRefresh            = "refresh"
	auditEventRefreshReplay      = "refresh_replay"
	auditEventRefreshRateLimited = "refresh_rate_limited"
	auditEventLogout             = "logout"
)

// Refresh rotates a token pair: the presented refresh token is consumed
// from the user's ledger and a fresh pair is minted and recorded. Each
// refresh token works exactly once. Presenting a token that was already
// consumed is treated as theft evidence and revokes the user's entire
// ledger before failing.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if e == nil || e.users == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	if refreshToken == "" {
		return nil, ErrMissingToken
	}

	claims, err := e.jwtManager.Parse(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefresh, "", false, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	if e.refreshThrottled() {
		if err := e.rateLimiter.CheckRefresh(ctx, claims.UID); err != nil {
			e.metricInc(MetricRefreshRateLimited)
			e.emitAudit(ctx, auditEventRefreshRateLimited, claims.UID, false, ErrRefreshRateLimited, nil)
			return nil, mapRateErr(err, ErrRefreshRateLimited)
		}
	}

	if _, err := e.users.ConsumeRefreshToken(ctx, claims.UID, refreshToken); err != nil {
		switch {
		case errors.Is(err, store.ErrTokenReused):
			// The ledger was cleared by the store before it reported the
			// reuse, so every outstanding session for this user is now
			// dead, including the thief's.
			e.metricInc(MetricRefreshReuseDetected)
			e.emitAudit(ctx, auditEventRefreshReplay, claims.UID, false, ErrInvalidCredentials, nil)
			return nil, ErrInvalidCredentials
		case errors.Is(err, store.ErrUserNotFound):
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefresh, claims.UID, false, ErrInvalidCredentials, nil)
			return nil, ErrInvalidCredentials
		default:
			return nil, err
		}
	}

	result, err := e.issueAndRecord(ctx, claims.UID)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefresh, claims.UID, true, nil, nil)

	return result, nil
}

// Logout removes the presented refresh token from its user's ledger.
// The operation is idempotent: an expired, malformed, or already-removed
// token still reports success, because the desired end state (token not
// honored) already holds. Only a missing token or a storage failure is
// an error.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if e == nil || e.users == nil || e.jwtManager == nil {
		return ErrEngineNotReady
	}
	if refreshToken == "" {
		return ErrMissingToken
	}

	claims, err := e.jwtManager.Parse(refreshToken)
	if err != nil {
		e.metricInc(MetricLogout)
		e.emitAudit(ctx, auditEventLogout, "", true, nil, nil)
		return nil
	}

	if _, err := e.users.ConsumeRefreshToken(ctx, claims.UID, refreshToken); err != nil {
		if !errors.Is(err, store.ErrTokenReused) && !errors.Is(err, store.ErrUserNotFound) {
			return err
		}
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, claims.UID, true, nil, nil)
	return nil
}

func (e *Engine) refreshThrottled() bool {
	return e.rateLimiter != nil && e.config.Security.EnableRefreshThrottle
}
