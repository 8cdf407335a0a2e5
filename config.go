package authgate

import (
	"errors"
	"time"

	"github.com/valedict/authgate/csrf"
	"github.com/valedict/authgate/internal/lockout"
	"github.com/valedict/authgate/internal/metrics"
	"github.com/valedict/authgate/password"
	"github.com/valedict/authgate/ratelimit"
	"github.com/valedict/authgate/token"
)

// Route classes for rate limiting. Auth covers login, register, and
// refresh; API covers everything else.
const (
	RateClassAuth = "auth"
	RateClassAPI  = "api"
)

// Config is the full engine configuration. Zero values are filled from
// defaultConfig by the builder; the signing secret has no default and
// Build fails without it.
type Config struct {
	Token     TokenConfig
	Lockout   LockoutConfig
	Session   SessionConfig
	Password  PasswordConfig
	RateLimit RateLimitConfig
	CSRF      csrf.Config
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// TokenConfig controls signing and claim validation.
type TokenConfig struct {
	// Secret is the HMAC signing key. Required.
	Secret []byte
	Issuer string
	// Audience the engine issues for and accepts.
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Leeway tolerated on time-based claims. Capped at two minutes.
	Leeway time.Duration
}

// LockoutConfig controls the failed-login state machine.
type LockoutConfig struct {
	Threshold uint32
	Duration  time.Duration
}

// SessionConfig controls refresh-bound session rows.
type SessionConfig struct {
	// TTL is the session lifetime; it should not be shorter than the
	// refresh token TTL or refresh tokens outlive their sessions.
	TTL time.Duration
}

// PasswordConfig carries argon2id parameters plus the minimum secret
// length enforced at registration.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	MinLength   int
}

// RateLimitConfig maps route classes to fixed-window policies. The
// zero value of each flag is the default behavior: limiting on,
// failing open.
type RateLimitConfig struct {
	// Disabled turns off all admission checks.
	Disabled bool
	Classes  map[string]ratelimit.Config
	// FailClosed rejects requests when the counter store is
	// unreachable. Left false, losing Redis degrades limits, not
	// logins.
	FailClosed bool
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled bool
	// BufferSize is the dispatcher queue depth. Events beyond it are
	// dropped and counted.
	BufferSize int
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled       bool
	EnableLatency bool
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			Issuer:     "authgate",
			Audience:   "authgate",
			AccessTTL:  time.Hour,
			RefreshTTL: 720 * time.Hour,
			Leeway:     30 * time.Second,
		},
		Lockout: LockoutConfig{
			Threshold: 5,
			Duration:  15 * time.Minute,
		},
		Session: SessionConfig{
			TTL: 720 * time.Hour,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			MinLength:   10,
		},
		RateLimit: RateLimitConfig{
			Classes: map[string]ratelimit.Config{
				RateClassAuth: {Window: 15 * time.Minute, Max: 10},
				RateClassAPI:  {Window: 15 * time.Minute, Max: 200},
			},
		},
		CSRF: csrf.DefaultConfig(),
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
		},
		Metrics: MetricsConfig{
			Enabled:       true,
			EnableLatency: true,
		},
	}
}

// cloneConfig deep-copies the mutable parts so callers cannot mutate
// engine state through a retained Config value.
func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = append([]byte(nil), cfg.Token.Secret...)
	if cfg.RateLimit.Classes != nil {
		out.RateLimit.Classes = make(map[string]ratelimit.Config, len(cfg.RateLimit.Classes))
		for class, policy := range cfg.RateLimit.Classes {
			out.RateLimit.Classes[class] = policy
		}
	}
	return out
}

func validateConfig(cfg Config) error {
	if len(cfg.Token.Secret) == 0 {
		return errors.New("authgate: signing secret is required")
	}
	if len(cfg.Token.Secret) < 32 {
		return errors.New("authgate: signing secret must be at least 32 bytes")
	}
	if cfg.Token.AccessTTL <= 0 || cfg.Token.RefreshTTL <= 0 {
		return errors.New("authgate: token TTLs must be positive")
	}
	if cfg.Token.RefreshTTL <= cfg.Token.AccessTTL {
		return errors.New("authgate: refresh TTL must exceed access TTL")
	}
	if cfg.Lockout.Threshold == 0 {
		return errors.New("authgate: lockout threshold must be positive")
	}
	if cfg.Lockout.Duration <= 0 {
		return errors.New("authgate: lockout duration must be positive")
	}
	if cfg.Session.TTL < cfg.Token.RefreshTTL {
		return errors.New("authgate: session TTL must cover the refresh TTL")
	}
	if !cfg.RateLimit.Disabled {
		for class, policy := range cfg.RateLimit.Classes {
			if policy.Window <= 0 || policy.Max <= 0 {
				return errors.New("authgate: rate limit class " + class + " needs positive window and max")
			}
		}
	}
	return nil
}

func (cfg Config) tokenConfig() token.Config {
	return token.Config{
		Secret:     cfg.Token.Secret,
		Issuer:     cfg.Token.Issuer,
		Audience:   cfg.Token.Audience,
		AccessTTL:  cfg.Token.AccessTTL,
		RefreshTTL: cfg.Token.RefreshTTL,
		Leeway:     cfg.Token.Leeway,
	}
}

func (cfg Config) lockoutConfig() lockout.Config {
	return lockout.Config{
		Threshold: cfg.Lockout.Threshold,
		Duration:  cfg.Lockout.Duration,
	}
}

func (cfg Config) passwordConfig() password.Config {
	return password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	}
}

func (cfg Config) metricsConfig() metrics.Config {
	return metrics.Config{
		Enabled:       cfg.Metrics.Enabled,
		EnableLatency: cfg.Metrics.EnableLatency,
	}
}
