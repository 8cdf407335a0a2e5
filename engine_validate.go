package authgate

import (
	"context"
	"errors"

	"github.com/valedict/authgate/internal/metrics"
	"github.com/valedict/authgate/token"
)

// Authenticate validates a bearer access token for a protected request.
// Claims are treated as a snapshot only: account status (active and
// lockout flags) is re-read live, since both can change during a
// token's lifetime. An expired lock found along the way is cleared and
// the request proceeds.
func (e *Engine) Authenticate(ctx context.Context, bearerToken string) (*AuthResult, error) {
	if e == nil || e.accountStore == nil {
		return nil, ErrEngineNotReady
	}

	start := e.now()
	result, err := e.authenticate(ctx, bearerToken)
	e.metricObserve(metrics.MetricValidateLatency, e.now().Sub(start))

	if err != nil {
		e.metricInc(metrics.MetricValidateFailure)
		if errors.Is(err, ErrTokenExpired) {
			e.metricInc(metrics.MetricTokenExpired)
		} else if !errors.Is(err, ErrMissingToken) {
			e.metricInc(metrics.MetricTokenRejected)
		}
		e.emitAudit(ctx, auditEventAuthRejected, tokenFailureSeverity(err), false, "", "", err, nil)
		return nil, err
	}

	e.metricInc(metrics.MetricValidateSuccess)
	return result, nil
}

// AuthenticateOptional runs the same checks but swallows every failure,
// returning nil identity instead. Used for public endpoints that
// personalize when a valid token happens to be present.
func (e *Engine) AuthenticateOptional(ctx context.Context, bearerToken string) *AuthResult {
	if e == nil || e.accountStore == nil || bearerToken == "" {
		return nil
	}

	result, err := e.authenticate(ctx, bearerToken)
	if err != nil {
		return nil
	}

	return result
}

func (e *Engine) authenticate(ctx context.Context, bearerToken string) (*AuthResult, error) {
	if bearerToken == "" {
		return nil, ErrMissingToken
	}

	claims, err := e.tokens.Verify(bearerToken, token.KindAccess)
	if err != nil {
		return nil, mapTokenError(err)
	}

	account, err := e.liveAccount(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		SubjectID: account.ID,
		Email:     account.Email,
		Username:  account.Username,
		SessionID: claims.SessionID,
	}, nil
}
