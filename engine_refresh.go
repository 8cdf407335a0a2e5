package authgate

import (
	"context"
	"errors"
	"fmt"

	"github.com/valedict/authgate/internal/audit"
	"github.com/valedict/authgate/internal/lockout"
	"github.com/valedict/authgate/internal/metrics"
	"github.com/valedict/authgate/session"
	"github.com/valedict/authgate/token"
)

// Refresh exchanges a valid refresh token for a new access token. The
// session stays valid and the presented refresh token remains usable
// until explicit revocation or expiry; only lastActivityAt advances.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if e == nil || e.accountStore == nil {
		return nil, ErrEngineNotReady
	}
	if refreshToken == "" {
		e.metricInc(metrics.MetricRefreshFailure)
		return nil, ErrMissingToken
	}

	claims, err := e.tokens.Verify(refreshToken, token.KindRefresh)
	if err != nil {
		mapped := mapTokenError(err)
		e.metricInc(metrics.MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, tokenFailureSeverity(mapped), false, "", "", mapped, nil)
		return nil, mapped
	}

	sess, err := e.validateSession(ctx, refreshToken)
	if err != nil {
		e.metricInc(metrics.MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, audit.SeverityInfo, false, claims.Subject, claims.SessionID, err, nil)
		return nil, err
	}

	account, err := e.liveAccount(ctx, sess.SubjectID)
	if err != nil {
		e.metricInc(metrics.MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, audit.SeverityInfo, false, sess.SubjectID, sess.ID, err, nil)
		return nil, err
	}

	accessToken, err := e.tokens.IssueAccess(token.AccountSnapshot{
		ID:        account.ID,
		Email:     account.Email,
		Username:  account.Username,
		Active:    account.Active,
		SessionID: sess.ID,
	})
	if err != nil {
		return nil, err
	}

	if err := e.sessionStore.TouchActivity(ctx, sess.ID, e.now()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(metrics.MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, audit.SeverityInfo, true, account.ID, sess.ID, nil, nil)

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    sess.ID,
		Account:      summarize(account),
	}, nil
}

// validateSession resolves the session bound to a verified refresh
// token and checks its validity window.
func (e *Engine) validateSession(ctx context.Context, refreshToken string) (*session.Session, error) {
	sess, err := e.sessionStore.FindByToken(ctx, session.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if !sess.Valid {
		return nil, ErrSessionInvalid
	}
	if sess.Expired(e.now()) {
		return nil, ErrSessionExpired
	}

	return sess, nil
}

// liveAccount re-reads account state and applies the lockout policy,
// clearing an expired lock lazily on the way.
func (e *Engine) liveAccount(ctx context.Context, subjectID string) (Account, error) {
	account, err := e.accountStore.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if !account.Active {
		return Account{}, ErrAccountInactive
	}

	state, mutation := lockout.Evaluate(account.lockoutSnapshot(), e.now())
	if state == lockout.Locked {
		return Account{}, ErrAccountLocked
	}
	if mutation.Apply {
		account, err = e.applyLockoutMutation(ctx, account, mutation)
		if err != nil {
			return Account{}, err
		}
		e.emitAudit(ctx, auditEventLockCleared, audit.SeverityInfo, true, account.ID, "", nil, nil)
	}

	return account, nil
}

// mapTokenError translates the token package taxonomy into the engine's
// sentinels. Mapping happens once, here; callers never re-wrap.
func mapTokenError(err error) error {
	switch {
	case errors.Is(err, token.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, token.ErrWrongKind):
		return ErrTokenWrongKind
	case errors.Is(err, token.ErrSignature):
		return ErrTokenSignature
	default:
		return ErrTokenMalformed
	}
}
