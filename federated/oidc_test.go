package federated

import (
	"context"
	"errors"
	"testing"
)

func TestNewOIDCRequiresClientID(t *testing.T) {
	if _, err := NewOIDC(context.Background(), Config{}); err == nil {
		t.Fatal("expected error without client ID")
	}
}

func TestIdentityFromClaims(t *testing.T) {
	identity, err := identityFromClaims(idClaims{
		Email:         "u@x.com",
		EmailVerified: true,
		Name:          "U Ser",
		Picture:       "https://img.example/u.png",
	})
	if err != nil {
		t.Fatalf("identityFromClaims error: %v", err)
	}
	if identity.Email != "u@x.com" || identity.Name != "U Ser" || identity.Picture != "https://img.example/u.png" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestIdentityFromClaimsRejectsMissingEmail(t *testing.T) {
	if _, err := identityFromClaims(idClaims{EmailVerified: true}); err == nil {
		t.Fatal("expected error for missing email")
	}
}

func TestIdentityFromClaimsRejectsUnverifiedEmail(t *testing.T) {
	_, err := identityFromClaims(idClaims{Email: "u@x.com"})
	if !errors.Is(err, ErrUnverifiedEmail) {
		t.Fatalf("got %v, want ErrUnverifiedEmail", err)
	}
}
