package authledger

import (
	"context"
	"errors"

	"github.com/mkarlin94/authledger/password"
	"github.com/mkarlin94/authledger/store"
)

const (
	auditEventFederatedLogin  = "federated_login"
	auditEventUserProvisioned = "user_provisioned"
)

// FederatedLogin authenticates an external identity credential (an OIDC
// ID token or similar opaque assertion) and mints a token pair. The
// account is matched by the verified email; a first-time identity is
// provisioned automatically with a non-password sentinel in the password
// slot, so the account can never be entered through the local login
// path.
func (e *Engine) FederatedLogin(ctx context.Context, credential string) (*AuthResult, error) {
	if e == nil || e.users == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	if e.verifier == nil {
		return nil, ErrEngineNotReady
	}
	if credential == "" {
		return nil, ErrInvalidCredentials
	}

	verifyCtx := ctx
	if timeout := e.config.Federated.VerifyTimeout; timeout > 0 {
		var cancel context.CancelFunc
		verifyCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	identity, err := e.verifier.Verify(verifyCtx, credential)
	if err != nil || identity.Email == "" {
		e.metricInc(MetricFederatedLoginFailure)
		e.emitAudit(ctx, auditEventFederatedLogin, "", false, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	user, err := e.users.FindByEmail(ctx, identity.Email)
	if errors.Is(err, store.ErrUserNotFound) {
		user, err = e.provisionFederated(ctx, identity)
	}
	if err != nil {
		return nil, err
	}

	result, err := e.issueAndRecord(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricFederatedLoginSuccess)
	e.emitAudit(ctx, auditEventFederatedLogin, user.ID, true, nil, nil)

	return result, nil
}

// provisionFederated creates the account for a first-time federated
// identity. A concurrent first login can win the insert race; the loser
// falls back to reading the winner's row so both callers resolve to the
// same user.
func (e *Engine) provisionFederated(ctx context.Context, identity IdentityClaims) (User, error) {
	user, err := e.users.Create(ctx, CreateUserInput{
		Email:        identity.Email,
		PasswordHash: password.FederatedSentinel,
		DisplayName:  identity.Name,
		AvatarRef:    identity.Picture,
	})
	if err == nil {
		e.metricInc(MetricUserProvisioned)
		e.emitAudit(ctx, auditEventUserProvisioned, user.ID, true, nil, map[string]string{
			"email": identity.Email,
		})
		return user, nil
	}
	if errors.Is(err, store.ErrEmailTaken) {
		return e.users.FindByEmail(ctx, identity.Email)
	}
	return User{}, err
}
