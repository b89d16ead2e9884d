package authledger

import (
	"errors"
	"time"

	"github.com/mkarlin94/authledger/jwt"
	"github.com/mkarlin94/authledger/password"
)

// Config is the engine configuration. Construct with [DefaultConfig] and
// override fields before [Builder.Build]; it is treated as immutable
// afterwards.
type Config struct {
	JWT       JWTConfig
	Password  password.Config
	Security  SecurityConfig
	Federated FederatedConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
	Store     StoreConfig
}

// JWTConfig carries signing material and the two expiry policies.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

// SecurityConfig tunes the optional login/refresh throttles.
type SecurityConfig struct {
	EnableLoginThrottle     bool
	EnableIPThrottle        bool
	EnableRefreshThrottle   bool
	MaxLoginAttempts        int
	LoginCooldownDuration   time.Duration
	MaxRefreshAttempts      int
	RefreshCooldownDuration time.Duration
}

// FederatedConfig bounds the external identity-provider call.
type FederatedConfig struct {
	// VerifyTimeout caps the credential verification round trip. The
	// whole federated login fails, without creating a user record, when
	// the verifier does not answer in time.
	VerifyTimeout time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig enables the in-process counter set.
type MetricsConfig struct {
	Enabled bool
}

// StoreConfig names the Redis key prefix for the default repository.
type StoreConfig struct {
	RedisPrefix string
}

// DefaultConfig returns a development-ready configuration. Signing
// material must still be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: string(jwt.MethodHS256),
		},
		Password: password.DefaultConfig(),
		Security: SecurityConfig{
			MaxLoginAttempts:        10,
			LoginCooldownDuration:   5 * time.Minute,
			MaxRefreshAttempts:      30,
			RefreshCooldownDuration: time.Minute,
		},
		Federated: FederatedConfig{
			VerifyTimeout: 5 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Store: StoreConfig{
			RedisPrefix: "al",
		},
	}
}

// Validate rejects configurations that would misbehave at runtime.
func (c Config) Validate() error {
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("authledger: token TTLs must be positive")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("authledger: refresh TTL must not be shorter than access TTL")
	}
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 || c.Security.LoginCooldownDuration <= 0 {
			return errors.New("authledger: login throttle requires positive budget and cooldown")
		}
	}
	if c.Security.EnableRefreshThrottle {
		if c.Security.MaxRefreshAttempts <= 0 || c.Security.RefreshCooldownDuration <= 0 {
			return errors.New("authledger: refresh throttle requires positive budget and cooldown")
		}
	}
	if c.Federated.VerifyTimeout < 0 {
		return errors.New("authledger: federated verify timeout must not be negative")
	}
	return nil
}
