package authgate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/valedict/authgate/internal/audit"
	"github.com/valedict/authgate/internal/lockout"
	"github.com/valedict/authgate/internal/metrics"
	"github.com/valedict/authgate/session"
	"github.com/valedict/authgate/token"
)

// Login verifies the identifier/secret pair, advances the lockout state
// machine, and on success creates a new session with a fresh token
// pair. Missing accounts and wrong secrets both surface as
// ErrInvalidCredentials; the distinction exists only in audit events.
func (e *Engine) Login(ctx context.Context, identifier, secret string) (*LoginResult, error) {
	if e == nil || e.accountStore == nil {
		return nil, ErrEngineNotReady
	}
	if identifier == "" || secret == "" {
		e.metricInc(metrics.MetricLoginFailure)
		return nil, ErrInvalidCredentials
	}

	account, err := e.accountStore.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.metricInc(metrics.MetricLoginFailure)
			// Logged distinctly, surfaced identically to a bad secret.
			e.emitAudit(ctx, auditEventLoginFailure, audit.SeverityInfo, false, "", "", ErrAccountNotFound, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if !account.Active {
		e.metricInc(metrics.MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, audit.SeverityInfo, false, account.ID, "", ErrAccountInactive, nil)
		return nil, ErrAccountInactive
	}

	now := e.now()

	// Locked accounts are rejected before the secret is checked so the
	// response never leaks whether it was otherwise correct. These
	// rejections do not advance the failure counter.
	state, mutation := lockout.Evaluate(account.lockoutSnapshot(), now)
	if state == lockout.Locked {
		e.metricInc(metrics.MetricLoginLockedRejected)
		e.emitAudit(ctx, auditEventLockedRejected, audit.SeverityInfo, false, account.ID, "", ErrAccountLocked, nil)
		return nil, ErrAccountLocked
	}
	if mutation.Apply {
		account, err = e.applyLockoutMutation(ctx, account, mutation)
		if err != nil {
			return nil, err
		}
		e.emitAudit(ctx, auditEventLockCleared, audit.SeverityInfo, true, account.ID, "", nil, nil)
	}

	ok, err := e.passwordHash.Verify(secret, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return nil, e.recordLoginFailure(ctx, account, now)
	}

	// Any successful verification resets the counter, whatever its
	// prior value.
	if mut := lockout.OnSuccess(account.lockoutSnapshot()); mut.Apply {
		if err := e.accountStore.ClearLockout(ctx, account.ID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	result, err := e.openSession(ctx, account, now)
	if err != nil {
		return nil, err
	}

	e.metricInc(metrics.MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, audit.SeverityInfo, true, account.ID, result.SessionID, nil, nil)

	return result, nil
}

// Register creates an account and immediately opens its first session.
func (e *Engine) Register(ctx context.Context, in CreateInput) (*LoginResult, error) {
	if e == nil || e.accountStore == nil {
		return nil, ErrEngineNotReady
	}

	if err := validateRegistration(in, e.config.Password.MinLength); err != nil {
		e.emitAudit(ctx, auditEventRegisterFailure, audit.SeverityInfo, false, "", "", err, nil)
		return nil, err
	}

	hash, err := e.passwordHash.Hash(in.Secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
	}

	account, err := e.accountStore.Create(ctx, CreateAccountInput{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Username:     strings.TrimSpace(in.Username),
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, ErrAccountExists) {
			e.metricInc(metrics.MetricRegisterDuplicate)
			e.emitAudit(ctx, auditEventRegisterFailure, audit.SeverityInfo, false, "", "", ErrAccountExists, nil)
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	result, err := e.openSession(ctx, account, e.now())
	if err != nil {
		return nil, err
	}

	e.metricInc(metrics.MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, audit.SeverityInfo, true, account.ID, result.SessionID, nil, nil)

	return result, nil
}

// CreateInput carries registration fields including the raw secret.
type CreateInput struct {
	Email    string
	Username string
	Secret   string
}

func validateRegistration(in CreateInput, minSecret int) error {
	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: invalid email", ErrRegistrationInvalid)
	}
	if strings.TrimSpace(in.Username) == "" {
		return fmt.Errorf("%w: username required", ErrRegistrationInvalid)
	}
	if len(in.Secret) < minSecret {
		return fmt.Errorf("%w: secret shorter than %d bytes", ErrPasswordPolicy, minSecret)
	}
	var hasLetter, hasDigit bool
	for _, r := range in.Secret {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("%w: secret needs at least one letter and one digit", ErrPasswordPolicy)
	}
	return nil
}

// recordLoginFailure advances the lockout machine after a failed secret
// check and returns the caller-facing error.
func (e *Engine) recordLoginFailure(ctx context.Context, account Account, now time.Time) error {
	state, mutation := lockout.OnFailure(account.lockoutSnapshot(), e.config.lockoutConfig(), now)

	if _, err := e.applyLockoutMutation(ctx, account, mutation); err != nil {
		return err
	}

	e.metricInc(metrics.MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, audit.SeverityInfo, false, account.ID, "", ErrInvalidCredentials, nil)

	if state == lockout.Locked {
		e.metricInc(metrics.MetricAccountLocked)
		e.emitAudit(ctx, auditEventAccountLocked, audit.SeverityWarn, false, account.ID, "", ErrAccountLocked, func() map[string]string {
			return map[string]string{
				"locked_until": mutation.LockedUntil.UTC().Format(time.RFC3339),
			}
		})
		e.log.Warn("account locked",
			slog.String("subject_id", account.ID),
			slog.Time("locked_until", mutation.LockedUntil),
		)
	}

	return ErrInvalidCredentials
}

// applyLockoutMutation persists a transition with compare-and-set
// semantics on the stored counter. Losing the race to a concurrent
// transition is not an error; the fresh row is returned either way.
func (e *Engine) applyLockoutMutation(ctx context.Context, account Account, mutation lockout.Mutation) (Account, error) {
	if !mutation.Apply {
		return account, nil
	}

	fresh, err := e.accountStore.ApplyLockoutTransition(ctx, account.ID, account.FailedAttempts, mutation)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return account, ErrInvalidCredentials
		}
		return account, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return fresh, nil
}

// openSession creates a session row and issues its token pair.
func (e *Engine) openSession(ctx context.Context, account Account, now time.Time) (*LoginResult, error) {
	sessionID := uuid.NewString()

	refreshToken, err := e.tokens.IssueRefresh(account.ID, sessionID)
	if err != nil {
		return nil, err
	}

	sess := &session.Session{
		ID:             sessionID,
		SubjectID:      account.ID,
		RefreshHash:    session.HashToken(refreshToken),
		Valid:          true,
		IP:             clientIPFromContext(ctx),
		UserAgent:      userAgentFromContext(ctx),
		CreatedAt:      now,
		ExpiresAt:      now.Add(e.config.Session.TTL),
		LastActivityAt: now,
	}
	if err := e.sessionStore.Insert(ctx, sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	accessToken, err := e.tokens.IssueAccess(token.AccountSnapshot{
		ID:        account.ID,
		Email:     account.Email,
		Username:  account.Username,
		Active:    account.Active,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, err
	}

	e.metricInc(metrics.MetricSessionCreated)

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    sessionID,
		Account:      summarize(account),
	}, nil
}
