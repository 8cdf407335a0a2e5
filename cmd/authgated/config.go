package main

import (
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// serverConfig is the daemon configuration. Values come from a YAML
// file named by --config or CONFIG_PATH, with environment variables as
// the fallback source.
type serverConfig struct {
	Env    string       `yaml:"env" env:"ENV" env-default:"local"`
	HTTP   httpConfig   `yaml:"http"`
	Auth   authConfig   `yaml:"auth"`
	DB     dbConfig     `yaml:"db"`
	Redis  redisConfig  `yaml:"redis"`
	Sentry sentryConfig `yaml:"sentry"`
}

type httpConfig struct {
	Host            string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

func (h httpConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

type authConfig struct {
	JWTSecret        string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	Issuer           string        `yaml:"issuer" env:"ISSUER" env-default:"authgate"`
	Audience         string        `yaml:"audience" env:"AUDIENCE" env-default:"authgate"`
	AccessTokenTTL   time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"1h"`
	RefreshTokenTTL  time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"720h"`
	LockoutThreshold uint32        `yaml:"lockout_threshold" env:"LOCKOUT_THRESHOLD" env-default:"5"`
	LockoutDuration  time.Duration `yaml:"lockout_duration" env:"LOCKOUT_DURATION" env-default:"15m"`
	CSRFSecure       bool          `yaml:"csrf_secure" env:"CSRF_SECURE" env-default:"true"`
}

type dbConfig struct {
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL" env-required:"true"`
}

type redisConfig struct {
	// Addr is optional; empty keeps rate limiting in process memory.
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type sentryConfig struct {
	// DSN is optional; empty disables Sentry forwarding.
	DSN string `yaml:"dsn" env:"SENTRY_DSN"`
}

func loadConfig(path string) (serverConfig, error) {
	var cfg serverConfig

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return serverConfig{}, err
		}
		return cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return serverConfig{}, err
	}

	return cfg, nil
}
