package authgate

import (
	"log/slog"
	"time"

	"github.com/valedict/authgate/csrf"
	"github.com/valedict/authgate/internal/audit"
	"github.com/valedict/authgate/internal/metrics"
	"github.com/valedict/authgate/password"
	"github.com/valedict/authgate/ratelimit"
	"github.com/valedict/authgate/session"
	"github.com/valedict/authgate/token"
)

// Builder assembles an Engine. Configure it during initialization and
// call Build exactly once.
type Builder struct {
	config       Config
	accountStore AccountStore
	sessionStore session.Store
	limiter      ratelimit.Store
	auditSink    audit.Sink
	log          *slog.Logger
	built        bool
}

// New starts a builder with default configuration. The signing secret
// and an account store must still be supplied before Build.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the default configuration. Zero-valued sections
// keep their defaults.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = mergeDefaults(cfg)
	return b
}

// WithAccountStore sets the user record backend. Required.
func (b *Builder) WithAccountStore(store AccountStore) *Builder {
	b.accountStore = store
	return b
}

// WithSessionStore sets the session backend. Defaults to an in-memory
// store suited to single-instance deployments and tests.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.sessionStore = store
	return b
}

// WithRateLimitStore sets the request counter backend. Defaults to an
// in-memory fixed-window store.
func (b *Builder) WithRateLimitStore(store ratelimit.Store) *Builder {
	b.limiter = store
	return b
}

// WithAuditSink sets the destination for security events.
func (b *Builder) WithAuditSink(sink audit.Sink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the structured logger. Defaults to slog.Default.
func (b *Builder) WithLogger(log *slog.Logger) *Builder {
	b.log = log
	return b
}

// Build validates the configuration and wires the engine. It fails
// without a signing secret or an account store.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrEngineNotReady
	}

	if err := validateConfig(b.config); err != nil {
		return nil, err
	}
	if b.accountStore == nil {
		return nil, ErrEngineNotReady
	}

	tokens, err := token.NewManager(b.config.tokenConfig())
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewArgon2(b.config.passwordConfig())
	if err != nil {
		return nil, err
	}

	sessionStore := b.sessionStore
	if sessionStore == nil {
		sessionStore = session.NewMemoryStore()
	}

	limiter := b.limiter
	if limiter == nil {
		limiter = ratelimit.NewMemory(0)
	}

	log := b.log
	if log == nil {
		log = slog.Default()
	}

	dispatcher := audit.NewDispatcher(audit.Config{
		Enabled:    b.config.Audit.Enabled,
		BufferSize: b.config.Audit.BufferSize,
		DropIfFull: true,
	}, b.auditSink)

	b.built = true

	return &Engine{
		config:       cloneConfig(b.config),
		accountStore: b.accountStore,
		sessionStore: sessionStore,
		tokens:       tokens,
		passwordHash: hasher,
		limiter:      limiter,
		csrfGuard:    csrf.NewGuard(b.config.CSRF),
		audit:        dispatcher,
		metrics:      metrics.New(b.config.metricsConfig()),
		log:          log,
		now:          time.Now,
	}, nil
}

// mergeDefaults fills zero-valued sections of a caller config.
func mergeDefaults(cfg Config) Config {
	def := defaultConfig()

	if cfg.Token.Issuer == "" {
		cfg.Token.Issuer = def.Token.Issuer
	}
	if cfg.Token.Audience == "" {
		cfg.Token.Audience = def.Token.Audience
	}
	if cfg.Token.AccessTTL == 0 {
		cfg.Token.AccessTTL = def.Token.AccessTTL
	}
	if cfg.Token.RefreshTTL == 0 {
		cfg.Token.RefreshTTL = def.Token.RefreshTTL
	}
	if cfg.Token.Leeway == 0 {
		cfg.Token.Leeway = def.Token.Leeway
	}
	if cfg.Lockout.Threshold == 0 {
		cfg.Lockout.Threshold = def.Lockout.Threshold
	}
	if cfg.Lockout.Duration == 0 {
		cfg.Lockout.Duration = def.Lockout.Duration
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = cfg.Token.RefreshTTL
	}
	if cfg.Password == (PasswordConfig{}) {
		cfg.Password = def.Password
	}
	if cfg.Password.MinLength == 0 {
		cfg.Password.MinLength = def.Password.MinLength
	}
	if cfg.RateLimit.Classes == nil {
		cfg.RateLimit.Classes = def.RateLimit.Classes
	}
	if cfg.CSRF == (csrf.Config{}) {
		cfg.CSRF = def.CSRF
	}
	if cfg.Audit.BufferSize == 0 {
		cfg.Audit.BufferSize = def.Audit.BufferSize
	}

	return cfg
}
