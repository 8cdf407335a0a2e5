package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"

	"github.com/valedict/authgate"
	"github.com/valedict/authgate/httpapi"
	"github.com/valedict/authgate/metrics/export/prometheus"
	"github.com/valedict/authgate/ratelimit"
	"github.com/valedict/authgate/store/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("config_load_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := postgres.New(ctx, cfg.DB.DatabaseURL)
	if err != nil {
		log.Error("postgres_connect_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	var auditSink authgate.AuditSink = authgate.NewJSONAuditSink(os.Stdout)
	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Env,
		}); err != nil {
			log.Error("sentry_init_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
		auditSink = fanoutSink{authgate.NewJSONAuditSink(os.Stdout), authgate.NewSentrySink(nil)}
	}

	builder := authgate.New().
		WithConfig(engineConfig(cfg)).
		WithAccountStore(storage.Accounts()).
		WithSessionStore(storage.Sessions()).
		WithAuditSink(auditSink).
		WithLogger(log)

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		builder = builder.WithRateLimitStore(ratelimit.NewRedis(client, "authgate"))
		log.Info("rate_limit_backend", slog.String("backend", "redis"))
	} else {
		log.Info("rate_limit_backend", slog.String("backend", "memory"))
	}

	engine, err := builder.Build()
	if err != nil {
		log.Error("engine_build_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer engine.Close()

	mux := http.NewServeMux()
	mux.Handle("/", httpapi.NewHandler(engine, log).Routes())
	mux.Handle("GET /metrics", prometheus.NewExporter(engine).Handler())

	server := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("http_listen_start", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown_start")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown_failed", slog.String("err", err.Error()))
	}

	log.Info("shutdown_complete")
}

func engineConfig(cfg serverConfig) authgate.Config {
	out := authgate.Config{}
	out.Token.Secret = []byte(cfg.Auth.JWTSecret)
	out.Token.Issuer = cfg.Auth.Issuer
	out.Token.Audience = cfg.Auth.Audience
	out.Token.AccessTTL = cfg.Auth.AccessTokenTTL
	out.Token.RefreshTTL = cfg.Auth.RefreshTokenTTL
	out.Lockout.Threshold = cfg.Auth.LockoutThreshold
	out.Lockout.Duration = cfg.Auth.LockoutDuration
	out.CSRF.Secure = cfg.Auth.CSRFSecure
	out.Audit.Enabled = true
	out.Metrics.Enabled = true
	out.Metrics.EnableLatency = true
	return out
}

// fanoutSink forwards each event to every wrapped sink.
type fanoutSink []authgate.AuditSink

func (f fanoutSink) Emit(ctx context.Context, event authgate.AuditEvent) {
	for _, sink := range f {
		sink.Emit(ctx, event)
	}
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case "local":
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case "dev":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}
