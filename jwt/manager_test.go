package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"
)

func hs256Config() Config {
	return Config{
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("unit-test-secret"),
	}
}

func TestIssuePairAndParse(t *testing.T) {
	m, err := NewManager(hs256Config())
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	pair, err := m.IssuePair("user-1")
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be minted")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("access and refresh tokens must differ (different TTLs)")
	}

	access, err := m.Parse(pair.AccessToken)
	if err != nil {
		t.Fatalf("Parse(access) error: %v", err)
	}
	refresh, err := m.Parse(pair.RefreshToken)
	if err != nil {
		t.Fatalf("Parse(refresh) error: %v", err)
	}
	if access.UID != "user-1" || refresh.UID != "user-1" {
		t.Fatalf("unexpected subject: %q / %q", access.UID, refresh.UID)
	}
	if access.Nonce == "" || access.Nonce != refresh.Nonce {
		t.Fatal("pair halves must share one non-empty nonce")
	}
}

func TestPairsAreNeverByteIdentical(t *testing.T) {
	m, err := NewManager(hs256Config())
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	first, err := m.IssuePair("user-1")
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}
	second, err := m.IssuePair("user-1")
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}

	if first.AccessToken == second.AccessToken {
		t.Fatal("two access tokens minted for the same subject collided")
	}
	if first.RefreshToken == second.RefreshToken {
		t.Fatal("two refresh tokens minted for the same subject collided")
	}
}

func TestParseExpiredToken(t *testing.T) {
	cfg := hs256Config()
	cfg.AccessTTL = time.Millisecond
	cfg.RefreshTTL = time.Millisecond
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	pair, err := m.IssuePair("user-1")
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := m.Parse(pair.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseAcceptsTokenWithinTTL(t *testing.T) {
	cfg := hs256Config()
	cfg.AccessTTL = 2 * time.Second
	cfg.RefreshTTL = 2 * time.Second
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	pair, err := m.IssuePair("user-1")
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}
	if _, err := m.Parse(pair.AccessToken); err != nil {
		t.Fatalf("token inside its TTL must parse, got %v", err)
	}
}

func TestParseMalformedToken(t *testing.T) {
	m, err := NewManager(hs256Config())
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	for _, token := range []string{
		"",
		"garbage",
		"a.b.c",
	} {
		if _, err := m.Parse(token); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("expected ErrTokenMalformed for %q, got %v", token, err)
		}
	}
}

func TestParseRejectsForeignSignature(t *testing.T) {
	m, err := NewManager(hs256Config())
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	other, err := NewManager(Config{
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("a-different-secret"),
	})
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	pair, err := other.IssuePair("user-1")
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}
	if _, err := m.Parse(pair.AccessToken); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed for foreign signature, got %v", err)
	}
}

func TestEd25519RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey error: %v", err)
	}

	m, err := NewManager(Config{
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
	})
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	pair, err := m.IssuePair("user-ed")
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}
	claims, err := m.Parse(pair.RefreshToken)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if claims.UID != "user-ed" {
		t.Fatalf("unexpected subject %q", claims.UID)
	}
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	bad := []Config{
		{AccessTTL: 0, RefreshTTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: []byte("k")},
		{AccessTTL: time.Hour, RefreshTTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("k")},
		{AccessTTL: time.Minute, RefreshTTL: time.Hour, SigningMethod: MethodHS256},
		{AccessTTL: time.Minute, RefreshTTL: time.Hour, SigningMethod: "rs512", PrivateKey: []byte("k")},
		{AccessTTL: time.Minute, RefreshTTL: time.Hour, SigningMethod: MethodEd25519, PrivateKey: []byte("short")},
	}
	for i, cfg := range bad {
		if _, err := NewManager(cfg); err == nil {
			t.Fatalf("case %d: expected config rejection", i)
		}
	}
}
