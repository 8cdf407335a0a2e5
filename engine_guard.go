package authgate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/valedict/authgate/internal/audit"
	"github.com/valedict/authgate/internal/metrics"
	"github.com/valedict/authgate/ratelimit"
)

// RateDecision reports the outcome of an admission check.
type RateDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// AllowRate runs the fixed-window check for a route class against the
// client address in ctx. When the counter store is unreachable the
// configured failure policy applies; the default admits the request.
func (e *Engine) AllowRate(ctx context.Context, class string) (RateDecision, error) {
	if e == nil || e.limiter == nil || e.config.RateLimit.Disabled {
		return RateDecision{Allowed: true}, nil
	}

	policy, ok := e.config.RateLimit.Classes[class]
	if !ok {
		return RateDecision{Allowed: true}, nil
	}

	addr := clientIPFromContext(ctx)
	if addr == "" {
		addr = "unknown"
	}

	decision, err := e.limiter.Allow(ctx, ratelimit.Key(class, addr), policy)
	if err != nil {
		if errors.Is(err, ratelimit.ErrUnavailable) && !e.config.RateLimit.FailClosed {
			e.log.Warn("rate limit store unavailable, admitting request",
				slog.String("class", class),
				slog.String("err", err.Error()),
			)
			return RateDecision{Allowed: true}, nil
		}
		return RateDecision{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if !decision.Allowed {
		e.metricInc(metrics.MetricRateLimitHit)
		if class == RateClassAuth {
			e.metricInc(metrics.MetricLoginRateLimited)
		}
		e.emitAudit(ctx, auditEventRateLimitHit, audit.SeverityWarn, false, "", "", ErrRateLimited, func() map[string]string {
			return map[string]string{
				"class":       class,
				"retry_after": decision.RetryAfter.String(),
			}
		})
	}

	return RateDecision{
		Allowed:    decision.Allowed,
		Remaining:  decision.Remaining,
		RetryAfter: decision.RetryAfter,
	}, nil
}

// CheckCSRF runs the double-submit check on a mutating request and
// emits an audit event on mismatch.
func (e *Engine) CheckCSRF(ctx context.Context, r *http.Request) error {
	if e == nil || e.csrfGuard == nil {
		return ErrEngineNotReady
	}

	if err := e.csrfGuard.CheckRequest(r); err != nil {
		e.metricInc(metrics.MetricCSRFMismatch)
		e.emitAudit(ctx, auditEventCSRFMismatch, audit.SeverityWarn, false, "", "", ErrCSRFMismatch, nil)
		return ErrCSRFMismatch
	}

	return nil
}

// IssueCSRF sets a fresh CSRF cookie on w and returns the token value.
func (e *Engine) IssueCSRF(w http.ResponseWriter) (string, error) {
	if e == nil || e.csrfGuard == nil {
		return "", ErrEngineNotReady
	}
	return e.csrfGuard.Issue(w)
}
