package authledger

import (
	"errors"

	internalaudit "github.com/mkarlin94/authledger/internal/audit"
	"github.com/mkarlin94/authledger/internal/rate"
	"github.com/mkarlin94/authledger/jwt"
	"github.com/mkarlin94/authledger/password"
	"github.com/mkarlin94/authledger/store"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. Construction is allocation-only; no I/O
// happens until the first Engine call.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	users     UserRepository
	verifier  IdentityVerifier
	auditSink AuditSink
	built     bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the Redis client backing the default repository and
// the rate limiter.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserRepository overrides the default Redis-backed repository.
func (b *Builder) WithUserRepository(users UserRepository) *Builder {
	b.users = users
	return b
}

// WithIdentityVerifier supplies the federated credential verifier.
// Engines built without one reject FederatedLogin with
// [ErrEngineNotReady].
func (b *Builder) WithIdentityVerifier(v IdentityVerifier) *Builder {
	b.verifier = v
	return b
}

// WithAuditSink supplies the audit event consumer.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build validates the configuration and wires the engine. A Builder can
// build at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	users := b.users
	if users == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or user repository required")
		}
		users = store.NewRedis(b.redis, cfg.Store.RedisPrefix)
	}

	throttling := cfg.Security.EnableLoginThrottle || cfg.Security.EnableRefreshThrottle
	if throttling && b.redis == nil {
		return nil, errors.New("throttling requires redis client")
	}

	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	ph, err := password.New(cfg.Password)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cfg,
		users:        users,
		jwtManager:   jm,
		passwordHash: ph,
		verifier:     b.verifier,
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
	}

	if throttling {
		engine.rateLimiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle:        cfg.Security.EnableIPThrottle,
			EnableRefreshThrottle:   cfg.Security.EnableRefreshThrottle,
			MaxLoginAttempts:        cfg.Security.MaxLoginAttempts,
			LoginCooldownDuration:   cfg.Security.LoginCooldownDuration,
			MaxRefreshAttempts:      cfg.Security.MaxRefreshAttempts,
			RefreshCooldownDuration: cfg.Security.RefreshCooldownDuration,
		})
	}

	b.built = true
	return engine, nil
}

func cloneBytes(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
