package authledger

import (
	"context"
	"errors"
	"strings"

	"github.com/mkarlin94/authledger/store"
)

const (
	auditEventLogin            = "login"
	auditEventLoginRateLimited = "login_rate_limited"
)

// Login authenticates a local password and mints a token pair, appending
// the refresh half to the user's ledger. An unknown email and a wrong
// password are indistinguishable to the caller: same error, same timing
// class (a decoy verify runs on the unknown-email path).
func (e *Engine) Login(ctx context.Context, email, plaintext string) (*AuthResult, error) {
	if e == nil || e.users == nil || e.passwordHash == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	email = strings.TrimSpace(email)
	if email == "" || plaintext == "" {
		return nil, ErrInvalidCredentials
	}

	ip := clientIPFromContext(ctx)

	if e.loginThrottled() {
		if err := e.rateLimiter.CheckLogin(ctx, email, ip); err != nil {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, auditEventLoginRateLimited, "", false, ErrLoginRateLimited, map[string]string{
				"email": email,
			})
			return nil, mapRateErr(err, ErrLoginRateLimited)
		}
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			return nil, err
		}
		// Burn comparable CPU so the miss is not observable by timing.
		_, _ = e.passwordHash.Verify(plaintext, decoyHash)
		return nil, e.failLogin(ctx, email, ip, "")
	}

	ok, verifyErr := e.passwordHash.Verify(plaintext, user.PasswordHash)
	if verifyErr != nil || !ok {
		return nil, e.failLogin(ctx, email, ip, user.ID)
	}

	result, err := e.issueAndRecord(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if e.loginThrottled() {
		_ = e.rateLimiter.ResetLogin(ctx, email, ip)
	}
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLogin, user.ID, true, nil, nil)

	return result, nil
}

func (e *Engine) failLogin(ctx context.Context, email, ip, userID string) error {
	if e.loginThrottled() {
		if err := e.rateLimiter.IncrementLogin(ctx, email, ip); err != nil {
			e.metricInc(MetricLoginRateLimited)
			return mapRateErr(err, ErrLoginRateLimited)
		}
	}
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLogin, userID, false, ErrInvalidCredentials, map[string]string{
		"email": email,
	})
	return ErrInvalidCredentials
}

func (e *Engine) loginThrottled() bool {
	return e.rateLimiter != nil && e.config.Security.EnableLoginThrottle
}

// decoyHash is a syntactically valid Argon2id hash of no real password,
// used only to equalize the unknown-email and wrong-password paths.
const decoyHash = "$argon2id$v=19$m=65536,t=2,p=2$" +
	"c3RhdGljLWRlY295LXNhbHQ=$" +
	"ZGVjb3ktaGFzaC1vdXRwdXQtMzItYnl0ZXMhIQ=="
