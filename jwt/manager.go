package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the signature scheme for issued tokens.
type SigningMethod string

const (
	// MethodHS256 signs with a shared secret.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an Ed25519 private key.
	MethodEd25519 SigningMethod = "ed25519"
)

var (
	// ErrTokenExpired reports a structurally valid token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed reports a token that failed structural or
	// signature checks.
	ErrTokenMalformed = errors.New("token malformed")
)

// Config carries signing material and the two expiry policies.
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

// Claims is the payload carried by both halves of a token pair.
type Claims struct {
	UID   string `json:"uid"`
	Nonce string `json:"nonce"`
	jwt.RegisteredClaims
}

// Pair holds one freshly minted access/refresh token pair.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Manager mints and verifies token pairs. Safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("jwt: access and refresh TTLs must be positive")
	}
	if cfg.RefreshTTL < cfg.AccessTTL {
		return nil, errors.New("jwt: refresh TTL must not be shorter than access TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("jwt: leeway out of range")
	}

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("jwt: hs256 requires a shared secret")
		}
	case MethodEd25519:
		if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
			return nil, err
		}
		if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("jwt: unsupported signing method %q", cfg.SigningMethod)
	}

	return &Manager{config: cfg}, nil
}

// IssuePair signs an access token and a refresh token for userID. Both
// carry the same fresh nonce, so a pair is internally linked but distinct
// from every other pair ever minted.
func (m *Manager) IssuePair(userID string) (Pair, error) {
	nonce := uuid.NewString()

	access, err := m.sign(userID, nonce, m.config.AccessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := m.sign(userID, nonce, m.config.RefreshTTL)
	if err != nil {
		return Pair{}, err
	}

	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Parse verifies signature and expiry and returns the claims. Expired
// tokens fail with [ErrTokenExpired]; everything else structural fails
// with [ErrTokenMalformed].
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method().Alg()}),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.verifyKey()
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UID == "" {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

func (m *Manager) sign(userID, nonce string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UID:   userID,
		Nonce: nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(m.method(), claims)
	key, err := m.signKey()
	if err != nil {
		return "", err
	}
	return token.SignedString(key)
}

func (m *Manager) method() jwt.SigningMethod {
	if m.config.SigningMethod == MethodHS256 {
		return jwt.SigningMethodHS256
	}
	return jwt.SigningMethodEdDSA
}

func (m *Manager) signKey() (interface{}, error) {
	if m.config.SigningMethod == MethodHS256 {
		return m.config.PrivateKey, nil
	}
	return parseEdPrivateKey(m.config.PrivateKey)
}

func (m *Manager) verifyKey() (interface{}, error) {
	if m.config.SigningMethod == MethodHS256 {
		return m.config.PrivateKey, nil
	}
	return parseEdPublicKey(m.config.PublicKey)
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("jwt: invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("jwt: invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("jwt: invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("jwt: invalid ed25519 public key type")
	}
	return edKey, nil
}
