package federated

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/mkarlin94/authledger"
)

// GoogleIssuer is the default OIDC issuer.
const GoogleIssuer = "https://accounts.google.com"

// ErrUnverifiedEmail reports an ID token whose email claim the provider
// has not verified. Such identities must not be linked to accounts.
var ErrUnverifiedEmail = errors.New("federated: email not verified by provider")

// Config identifies this application to the identity provider.
type Config struct {
	// IssuerURL is the provider's discovery root. Defaults to
	// [GoogleIssuer].
	IssuerURL string
	// ClientID is the OAuth2 client this application registered with the
	// provider. ID tokens minted for any other audience are rejected.
	ClientID string
	// ClientSecret and RedirectURL are needed only for the
	// authorization-code flow; pure ID-token verification works without
	// them.
	ClientSecret string
	RedirectURL  string
	// Scopes for the authorization-code flow. Defaults to
	// openid, email, profile.
	Scopes []string
}

// OIDCVerifier validates provider-issued ID tokens. It implements
// [authledger.IdentityVerifier]. Safe for concurrent use.
type OIDCVerifier struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	oauth2   oauth2.Config
}

// NewOIDC runs provider discovery and returns a verifier. Discovery is
// one network round trip; the provider's signing keys are fetched and
// cached lazily on first verification.
func NewOIDC(ctx context.Context, cfg Config) (*OIDCVerifier, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("federated: client ID required")
	}
	if cfg.IssuerURL == "" {
		cfg.IssuerURL = GoogleIssuer
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{oidc.ScopeOpenID, "email", "profile"}
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("federated: provider discovery: %w", err)
	}

	return &OIDCVerifier{
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauth2: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
		},
	}, nil
}

type idClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Verify checks the raw ID token and returns the identity it asserts.
func (v *OIDCVerifier) Verify(ctx context.Context, credential string) (authledger.IdentityClaims, error) {
	idToken, err := v.verifier.Verify(ctx, credential)
	if err != nil {
		return authledger.IdentityClaims{}, fmt.Errorf("federated: verify id token: %w", err)
	}

	var claims idClaims
	if err := idToken.Claims(&claims); err != nil {
		return authledger.IdentityClaims{}, fmt.Errorf("federated: parse claims: %w", err)
	}

	return identityFromClaims(claims)
}

func identityFromClaims(claims idClaims) (authledger.IdentityClaims, error) {
	if claims.Email == "" {
		return authledger.IdentityClaims{}, errors.New("federated: id token carries no email")
	}
	if !claims.EmailVerified {
		return authledger.IdentityClaims{}, ErrUnverifiedEmail
	}

	return authledger.IdentityClaims{
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}

// AuthCodeURL builds the provider's consent-screen URL for the
// authorization-code flow. state must be an unguessable per-request
// value the callback checks against.
func (v *OIDCVerifier) AuthCodeURL(state string) string {
	return v.oauth2.AuthCodeURL(state)
}

// Exchange redeems an authorization code and returns the raw ID token
// embedded in the provider's response, ready to pass through [Verify].
func (v *OIDCVerifier) Exchange(ctx context.Context, code string) (string, error) {
	token, err := v.oauth2.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("federated: code exchange: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", errors.New("federated: token response carries no id_token")
	}
	return rawIDToken, nil
}
