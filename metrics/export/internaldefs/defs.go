package internaldefs

import (
	"github.com/valedict/authgate/internal/metrics"
)

// CounterDef names one engine counter for exposition.
type CounterDef struct {
	ID   metrics.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exposition.
type HistogramDef struct {
	ID   metrics.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: metrics.MetricLoginSuccess, Name: "authgate_login_success_total", Help: "Successful login attempts."},
	{ID: metrics.MetricLoginFailure, Name: "authgate_login_failure_total", Help: "Failed login attempts."},
	{ID: metrics.MetricLoginRateLimited, Name: "authgate_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: metrics.MetricLoginLockedRejected, Name: "authgate_login_locked_rejected_total", Help: "Login attempts rejected while locked."},
	{ID: metrics.MetricAccountLocked, Name: "authgate_account_locked_total", Help: "Lockout transitions to the locked state."},
	{ID: metrics.MetricRegisterSuccess, Name: "authgate_register_success_total", Help: "Successful registrations."},
	{ID: metrics.MetricRegisterDuplicate, Name: "authgate_register_duplicate_total", Help: "Registrations rejected as duplicate."},
	{ID: metrics.MetricRefreshSuccess, Name: "authgate_refresh_success_total", Help: "Successful refresh operations."},
	{ID: metrics.MetricRefreshFailure, Name: "authgate_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: metrics.MetricSessionCreated, Name: "authgate_session_created_total", Help: "Created sessions."},
	{ID: metrics.MetricSessionRevoked, Name: "authgate_session_revoked_total", Help: "Revoked sessions."},
	{ID: metrics.MetricLogout, Name: "authgate_logout_total", Help: "Logout operations."},
	{ID: metrics.MetricValidateSuccess, Name: "authgate_validate_success_total", Help: "Successful request authentications."},
	{ID: metrics.MetricValidateFailure, Name: "authgate_validate_failure_total", Help: "Failed request authentications."},
	{ID: metrics.MetricTokenExpired, Name: "authgate_token_expired_total", Help: "Tokens rejected as expired."},
	{ID: metrics.MetricTokenRejected, Name: "authgate_token_rejected_total", Help: "Tokens rejected as malformed, wrong-kind, or bad-signature."},
	{ID: metrics.MetricCSRFMismatch, Name: "authgate_csrf_mismatch_total", Help: "Failed double-submit checks."},
	{ID: metrics.MetricRateLimitHit, Name: "authgate_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
}

var HistogramDefs = []HistogramDef{
	{ID: metrics.MetricValidateLatency, Name: "authgate_validate_latency_seconds", Help: "Request authentication latency histogram."},
}

var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// Prometheus histograms expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
