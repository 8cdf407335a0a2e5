package authgate

import (
	"context"
	"time"

	"github.com/valedict/authgate/internal/lockout"
	"github.com/valedict/authgate/session"
)

// Account is the engine's view of a stored user record. The lockout
// fields (FailedAttempts, LockedUntil) are written only through
// ApplyLockoutTransition and ClearLockout.
type Account struct {
	ID             string
	Email          string
	Username       string
	PasswordHash   string
	Active         bool
	FailedAttempts uint32
	LockedUntil    time.Time
	CreatedAt      time.Time
}

func (a Account) lockoutSnapshot() lockout.Snapshot {
	return lockout.Snapshot{
		FailedAttempts: a.FailedAttempts,
		LockedUntil:    a.LockedUntil,
	}
}

// CreateAccountInput carries the fields persisted at registration. The
// hash is already derived; the store never sees the raw secret.
type CreateAccountInput struct {
	Email        string
	Username     string
	PasswordHash string
}

// AccountStore persists user records.
//
// Implementations return ErrAccountNotFound for missing rows,
// ErrAccountExists for identifier collisions on Create, and wrap
// backend failures with ErrStoreUnavailable.
type AccountStore interface {
	// FindByIdentifier resolves a login identifier (email or username).
	FindByIdentifier(ctx context.Context, identifier string) (Account, error)
	FindByID(ctx context.Context, id string) (Account, error)
	Create(ctx context.Context, in CreateAccountInput) (Account, error)

	// ApplyLockoutTransition applies m to the account's lockout fields
	// only if the stored counter still equals expected, then returns
	// the fresh row. If a concurrent transition won the race the row is
	// returned unchanged by this call; that is not an error.
	ApplyLockoutTransition(ctx context.Context, id string, expected uint32, m lockout.Mutation) (Account, error)

	// ClearLockout unconditionally zeroes the counter and lock fields.
	ClearLockout(ctx context.Context, id string) error
}

// AccountSummary is the secret-free account projection returned to
// clients.
type AccountSummary struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

func summarize(a Account) AccountSummary {
	return AccountSummary{ID: a.ID, Email: a.Email, Username: a.Username}
}

// LoginResult is returned by Login, Register, and Refresh.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	SessionID    string
	Account      AccountSummary
}

// AuthResult is the authenticated identity attached to a request after
// a successful Authenticate.
type AuthResult struct {
	SubjectID string
	Email     string
	Username  string
	SessionID string
}

// SessionView re-exports the secret-free session projection.
type SessionView = session.View
