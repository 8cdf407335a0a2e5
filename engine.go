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

// Engine is the authentication and session security core. Build one
// with New and treat it as immutable; all methods are safe for
// concurrent use.
type Engine struct {
	config       Config
	accountStore AccountStore
	sessionStore session.Store
	tokens       *token.Manager
	passwordHash *password.Argon2
	limiter      ratelimit.Store
	csrfGuard    *csrf.Guard
	audit        *audit.Dispatcher
	metrics      *metrics.Metrics
	log          *slog.Logger
	now          func() time.Time
}

// Close drains and stops the audit dispatcher. Call once on shutdown.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of security events dropped because
// the audit buffer was full or the sink panicked.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of engine counters.
func (e *Engine) MetricsSnapshot() metrics.Snapshot {
	if e == nil || e.metrics == nil {
		return metrics.Snapshot{
			Counters:   map[metrics.MetricID]uint64{},
			Histograms: map[metrics.MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// CSRF returns the engine's guard for transport-layer wiring.
func (e *Engine) CSRF() *csrf.Guard {
	return e.csrfGuard
}

func (e *Engine) metricInc(id metrics.MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id metrics.MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}
