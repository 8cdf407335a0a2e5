package authgate

import (
	"context"
	"time"

	"github.com/valedict/authgate/internal/audit"
)

// Audit event kinds. Stable strings; operators alert on them.
const (
	auditEventLoginSuccess      = "LOGIN_SUCCESS"
	auditEventLoginFailure      = "LOGIN_FAILURE"
	auditEventAccountLocked     = "ACCOUNT_LOCKED"
	auditEventLockedRejected    = "LOCKED_LOGIN_REJECTED"
	auditEventLockCleared       = "LOCK_CLEARED"
	auditEventRegisterSuccess   = "REGISTER_SUCCESS"
	auditEventRegisterFailure   = "REGISTER_FAILURE"
	auditEventRefreshSuccess    = "REFRESH_SUCCESS"
	auditEventRefreshFailure    = "REFRESH_FAILURE"
	auditEventLogout            = "LOGOUT"
	auditEventSessionRevoked    = "SESSION_REVOKED"
	auditEventSessionRevokedAll = "SESSION_REVOKED_ALL"
	auditEventAuthRejected      = "AUTH_REJECTED"
	auditEventRateLimitHit      = "RATE_LIMIT_EXCEEDED"
	auditEventCSRFMismatch      = "CSRF_MISMATCH"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	kind string,
	severity audit.Severity,
	success bool,
	subjectID string,
	sessionID string,
	err error,
	detailBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var detail map[string]string
	if detailBuilder != nil {
		detail = detailBuilder()
	}

	event := audit.Event{
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		Severity:  severity,
		SubjectID: subjectID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Endpoint:  endpointFromContext(ctx),
		Success:   success,
		Detail:    detail,
	}
	if err != nil {
		event.Error = ErrorKind(err)
	}

	e.audit.Emit(ctx, event)
}

// tokenFailureSeverity implements the differentiated logging policy:
// expiry is routine, everything else on a token suggests probing.
func tokenFailureSeverity(err error) audit.Severity {
	if err == nil {
		return audit.SeverityInfo
	}
	switch ErrorKind(err) {
	case "TOKEN_EXPIRED", "ACCOUNT_LOCKED", "MISSING_TOKEN":
		return audit.SeverityInfo
	default:
		return audit.SeverityWarn
	}
}
