package authgate

import (
	"context"
	"io"

	"github.com/getsentry/sentry-go"
	"github.com/valedict/authgate/internal/audit"
)

// AuditEvent is the security event record handed to sinks.
type AuditEvent = audit.Event

// AuditSink receives security events. Emit must not block for long and
// must never panic the caller; sink failures are contained by the
// dispatcher and never affect authentication decisions.
type AuditSink = audit.Sink

// AuditSeverity classifies an event as informational or suspicious.
type AuditSeverity = audit.Severity

const (
	AuditSeverityInfo = audit.SeverityInfo
	AuditSeverityWarn = audit.SeverityWarn
)

// NewJSONAuditSink writes one JSON event per line to w.
func NewJSONAuditSink(w io.Writer) AuditSink {
	return audit.NewJSONWriterSink(w)
}

// SentrySink forwards warn-severity security events to Sentry as
// messages. Informational events are dropped; Sentry is for probing
// signals, not login traffic.
type SentrySink struct {
	hub *sentry.Hub
}

// NewSentrySink wraps hub; nil uses the current global hub.
func NewSentrySink(hub *sentry.Hub) *SentrySink {
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	return &SentrySink{hub: hub}
}

func (s *SentrySink) Emit(_ context.Context, event AuditEvent) {
	if s == nil || s.hub == nil || event.Severity != audit.SeverityWarn {
		return
	}

	s.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelWarning)
		scope.SetTag("audit_kind", event.Kind)
		if event.SubjectID != "" {
			scope.SetTag("subject_id", event.SubjectID)
		}
		scope.SetContext("audit", map[string]any{
			"endpoint":   event.Endpoint,
			"ip":         event.IP,
			"user_agent": event.UserAgent,
			"error":      event.Error,
			"detail":     event.Detail,
		})
		s.hub.CaptureMessage("authgate: " + event.Kind)
	})
}
