package authledger

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRegisterCreatesUserWithoutTokens(t *testing.T) {
	e := newTestEngine(t)

	user := mustRegister(t, e, "new@x.com", "correct horse")
	if user.ID == "" {
		t.Fatal("expected assigned user ID")
	}
	if user.PasswordHash == "correct horse" || !strings.HasPrefix(user.PasswordHash, "$argon2id$") {
		t.Fatalf("password not hashed: %q", user.PasswordHash)
	}
	if tokens := ledger(t, e, user.ID); len(tokens) != 0 {
		t.Fatalf("expected empty ledger after register, got %v", tokens)
	}
}

func TestRegisterTrimsEmail(t *testing.T) {
	e := newTestEngine(t)

	user := mustRegister(t, e, "  padded@x.com  ", "hunter2!")
	if user.Email != "padded@x.com" {
		t.Fatalf("stored email %q, want trimmed", user.Email)
	}

	// The trimmed form is what logs in; lookups are exact-match on it.
	mustLogin(t, e, "padded@x.com", "hunter2!")
	mustLogin(t, e, " padded@x.com ", "hunter2!")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	e := newTestEngine(t)

	mustRegister(t, e, "dup@x.com", "first-password")
	_, err := e.Register(context.Background(), RegisterInput{
		Email:    "dup@x.com",
		Password: "second-password",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("Register = %v, want ErrEmailTaken", err)
	}

	// The original record survives intact.
	if _, err := e.Login(context.Background(), "dup@x.com", "first-password"); err != nil {
		t.Fatalf("original credentials rejected: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	e := newTestEngine(t)

	cases := []RegisterInput{
		{Email: "", Password: "pw"},
		{Email: "   ", Password: "pw"},
		{Email: "a@x.com", Password: ""},
	}
	for _, input := range cases {
		if _, err := e.Register(context.Background(), input); !errors.Is(err, ErrValidation) {
			t.Fatalf("Register(%+v) = %v, want ErrValidation", input, err)
		}
	}
}
