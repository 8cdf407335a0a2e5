package authgate

import (
	"errors"
	"net/http"
)

var (
	// ErrMissingToken reports a protected request carrying no bearer token.
	ErrMissingToken = errors.New("missing token")
	// ErrTokenMalformed reports a token that could not be parsed or whose claims are invalid.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenExpired reports a token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenWrongKind reports an access token presented where a refresh token is expected, or vice versa.
	ErrTokenWrongKind = errors.New("token wrong kind")
	// ErrTokenSignature reports a token whose signature does not verify.
	ErrTokenSignature = errors.New("token signature invalid")
	// ErrInvalidCredentials reports a failed credential check. Callers surface it identically to ErrAccountNotFound.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountNotFound reports a subject with no account row.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountInactive reports a deactivated account.
	ErrAccountInactive = errors.New("account inactive")
	// ErrAccountLocked reports an account in the locked state.
	ErrAccountLocked = errors.New("account locked")
	// ErrAccountExists reports a registration against an already-taken identifier.
	ErrAccountExists = errors.New("account already exists")
	// ErrPasswordPolicy reports a secret that fails the minimum password requirements.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrRegistrationInvalid reports malformed new-account fields.
	ErrRegistrationInvalid = errors.New("invalid registration request")
	// ErrSessionNotFound reports a refresh token bound to no known session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionInvalid reports a revoked session.
	ErrSessionInvalid = errors.New("session invalid")
	// ErrSessionExpired reports a session past its expiry.
	ErrSessionExpired = errors.New("session expired")
	// ErrCSRFMismatch reports a failed double-submit check.
	ErrCSRFMismatch = errors.New("csrf mismatch")
	// ErrRateLimited reports a request over its route-class budget.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrNotSessionOwner reports an attempt to revoke another subject's session.
	ErrNotSessionOwner = errors.New("session belongs to another subject")
	// ErrEngineNotReady reports a call on an engine missing a required dependency.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrStoreUnavailable wraps backend failures from the account or session store.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ErrorKind returns the stable wire identifier for err, or "INTERNAL"
// for anything outside the taxonomy. Login credential failures and
// missing accounts share INVALID_CREDENTIALS at the HTTP boundary; the
// distinction survives only in audit events.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "MISSING_TOKEN"
	case errors.Is(err, ErrTokenMalformed):
		return "TOKEN_MALFORMED"
	case errors.Is(err, ErrTokenExpired):
		return "TOKEN_EXPIRED"
	case errors.Is(err, ErrTokenWrongKind):
		return "TOKEN_WRONG_KIND"
	case errors.Is(err, ErrTokenSignature):
		return "TOKEN_MALFORMED"
	case errors.Is(err, ErrInvalidCredentials):
		return "INVALID_CREDENTIALS"
	case errors.Is(err, ErrAccountNotFound):
		return "ACCOUNT_NOT_FOUND"
	case errors.Is(err, ErrAccountInactive):
		return "ACCOUNT_INACTIVE"
	case errors.Is(err, ErrAccountLocked):
		return "ACCOUNT_LOCKED"
	case errors.Is(err, ErrAccountExists):
		return "ACCOUNT_EXISTS"
	case errors.Is(err, ErrPasswordPolicy):
		return "PASSWORD_POLICY"
	case errors.Is(err, ErrRegistrationInvalid):
		return "REGISTRATION_INVALID"
	case errors.Is(err, ErrSessionNotFound):
		return "SESSION_NOT_FOUND"
	case errors.Is(err, ErrSessionInvalid):
		return "SESSION_INVALID"
	case errors.Is(err, ErrSessionExpired):
		return "SESSION_EXPIRED"
	case errors.Is(err, ErrCSRFMismatch):
		return "CSRF_MISMATCH"
	case errors.Is(err, ErrRateLimited):
		return "RATE_LIMIT_EXCEEDED"
	case errors.Is(err, ErrNotSessionOwner):
		return "SESSION_NOT_FOUND"
	default:
		return "INTERNAL"
	}
}

// HTTPStatus maps err to its HTTP-equivalent status code. The mapping
// is applied once at the transport boundary and never re-wrapped.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMissingToken),
		errors.Is(err, ErrTokenMalformed),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenWrongKind),
		errors.Is(err, ErrTokenSignature),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrSessionInvalid),
		errors.Is(err, ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAccountInactive),
		errors.Is(err, ErrAccountLocked),
		errors.Is(err, ErrCSRFMismatch),
		errors.Is(err, ErrNotSessionOwner):
		return http.StatusForbidden
	case errors.Is(err, ErrAccountNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAccountExists):
		return http.StatusConflict
	case errors.Is(err, ErrPasswordPolicy),
		errors.Is(err, ErrRegistrationInvalid):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
