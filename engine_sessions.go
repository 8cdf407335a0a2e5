package authgate

import (
	"context"
	"errors"
	"fmt"

	"github.com/valedict/authgate/internal/audit"
	"github.com/valedict/authgate/internal/metrics"
	"github.com/valedict/authgate/session"
	"github.com/valedict/authgate/token"
)

// Logout revokes the session bound to the presented refresh token.
// Already-revoked sessions log out successfully; access tokens issued
// for the session stay technically valid until their own expiry, but
// refresh attempts fail from this point on.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if refreshToken == "" {
		return ErrMissingToken
	}

	claims, err := e.tokens.Verify(refreshToken, token.KindRefresh)
	if err != nil {
		return mapTokenError(err)
	}

	sess, err := e.sessionStore.FindByToken(ctx, session.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := e.sessionStore.SetValid(ctx, sess.ID, false); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(metrics.MetricLogout)
	e.emitAudit(ctx, auditEventLogout, audit.SeverityInfo, true, claims.Subject, sess.ID, nil, nil)

	return nil
}

// RevokeSession revokes one of the subject's own sessions by id.
// Revoking a session that is already invalid is a no-op success;
// revoking another subject's session is rejected without revealing
// whether it exists.
func (e *Engine) RevokeSession(ctx context.Context, subjectID, sessionID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	sess, err := e.sessionStore.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if sess.SubjectID != subjectID {
		e.emitAudit(ctx, auditEventSessionRevoked, audit.SeverityWarn, false, subjectID, sessionID, ErrNotSessionOwner, nil)
		return ErrSessionNotFound
	}

	if err := e.sessionStore.SetValid(ctx, sessionID, false); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(metrics.MetricSessionRevoked)
	e.emitAudit(ctx, auditEventSessionRevoked, audit.SeverityInfo, true, subjectID, sessionID, nil, nil)

	return nil
}

// RevokeAll revokes every valid session belonging to the subject.
func (e *Engine) RevokeAll(ctx context.Context, subjectID string) (int, error) {
	if e == nil {
		return 0, ErrEngineNotReady
	}

	sessions, err := e.sessionStore.ListValid(ctx, subjectID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	revoked := 0
	for _, sess := range sessions {
		if err := e.sessionStore.SetValid(ctx, sess.ID, false); err != nil {
			return revoked, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		revoked++
		e.metricInc(metrics.MetricSessionRevoked)
	}

	e.emitAudit(ctx, auditEventSessionRevokedAll, audit.SeverityInfo, true, subjectID, "", nil, func() map[string]string {
		return map[string]string{"revoked": fmt.Sprintf("%d", revoked)}
	})

	return revoked, nil
}

// Sessions lists the subject's valid sessions as secret-free views.
func (e *Engine) Sessions(ctx context.Context, subjectID string) ([]SessionView, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	sessions, err := e.sessionStore.ListValid(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	views := make([]SessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, sess.View())
	}

	return views, nil
}
