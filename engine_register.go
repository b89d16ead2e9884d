package authledger

import (
	"context"
	"errors"
	"strings"

	"github.com/mkarlin94/authledger/store"
)

const (
	auditEventRegister = "register"
)

// Register creates a user with a hashed password and an empty
// refresh-token ledger. No tokens are issued; the client must log in.
// A duplicate email fails with [ErrEmailTaken] — the store's uniqueness
// guarantee makes the losing insert fail instead of overwriting.
func (e *Engine) Register(ctx context.Context, input RegisterInput) (User, error) {
	if e == nil || e.users == nil || e.passwordHash == nil {
		return User{}, ErrEngineNotReady
	}
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return User{}, ErrValidation
	}

	hash, err := e.passwordHash.Hash(input.Password)
	if err != nil {
		return User{}, err
	}

	user, err := e.users.Create(ctx, CreateUserInput{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  input.DisplayName,
		AvatarRef:    input.AvatarRef,
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			e.metricInc(MetricRegisterDuplicate)
			e.emitAudit(ctx, auditEventRegister, "", false, ErrEmailTaken, map[string]string{
				"email": email,
			})
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegister, user.ID, true, nil, nil)

	return user, nil
}
