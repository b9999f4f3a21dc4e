package marketauth

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/manfra-io/marketauth/internal/stores"
	"github.com/manfra-io/marketauth/jwt"
	"github.com/manfra-io/marketauth/password"
	"github.com/manfra-io/marketauth/totp"
)

// Builder assembles an [Engine]. Construction is allocation-only; no I/O
// happens until the engine serves its first call.
//
//	engine, err := marketauth.New().
//		WithConfig(cfg).
//		WithRedis(client).
//		WithUserStore(store).
//		Build()
type Builder struct {
	cfg      Config
	cfgSet   bool
	redis    redis.UniversalClient
	users    UserStore
	warnHook func(string, ...any)
}

// New starts a builder.
func New() *Builder {
	return &Builder{}
}

// WithConfig sets the engine configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	b.cfgSet = true
	return b
}

// WithRedis injects the Redis client backing the token registries.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore injects the external credential store.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithWarnLogger sets the hook used for non-fatal anomalies (for example a
// failed opportunistic hash upgrade). Defaults to a no-op.
func (b *Builder) WithWarnLogger(fn func(msg string, args ...any)) *Builder {
	b.warnHook = fn
	return b
}

// Build validates configuration and dependencies and returns a ready
// engine.
func (b *Builder) Build() (*Engine, error) {
	if !b.cfgSet {
		b.cfg = DefaultConfig()
	}
	if err := b.cfg.validate(); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, fmt.Errorf("%w: redis client is required", ErrEngineNotReady)
	}
	if b.users == nil {
		return nil, fmt.Errorf("%w: user store is required", ErrEngineNotReady)
	}

	tokens, err := jwt.NewManager(jwt.Config{
		AccessSecret:  []byte(b.cfg.JWT.AccessSecret),
		RefreshSecret: []byte(b.cfg.JWT.RefreshSecret),
		AccessTTL:     b.cfg.JWT.AccessTTL,
		RefreshTTL:    b.cfg.JWT.RefreshTTL,
		Issuer:        b.cfg.JWT.Issuer,
		Leeway:        b.cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(password.Config{
		Memory:      b.cfg.Password.Memory,
		Time:        b.cfg.Password.Time,
		Parallelism: b.cfg.Password.Parallelism,
		SaltLength:  b.cfg.Password.SaltLength,
		KeyLength:   b.cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	generator, err := totp.NewGenerator(b.cfg.TOTP.Issuer, b.cfg.TOTP.Period, b.cfg.TOTP.Skew)
	if err != nil {
		return nil, err
	}

	warn := b.warnHook
	if warn == nil {
		warn = func(string, ...any) {}
	}

	return &Engine{
		cfg:            b.cfg,
		tokens:         tokens,
		passwords:      hasher,
		totp:           generator,
		users:          b.users,
		refreshIndex:   stores.NewRefreshRegistry(b.redis, b.cfg.Keys.RefreshPrefix),
		revokedAccess:  stores.NewRevocationRegistry(b.redis, b.cfg.Keys.RevokedAccessPrefix),
		revokedRefresh: stores.NewRevocationRegistry(b.redis, b.cfg.Keys.RevokedRefreshPrefix),
		tempTokens:     stores.NewTempTokenStore(b.redis, b.cfg.Keys.TempTokenPrefix, b.cfg.TempToken.TTL),
		warn:           warn,
	}, nil
}
