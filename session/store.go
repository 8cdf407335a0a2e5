package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no session matches the given id or token hash.
var ErrNotFound = errors.New("session not found")

// Store persists refresh-bound sessions. Implementations must make SetValid
// idempotent (revoking an already-invalid session is a no-op success) and
// must never delete rows on behalf of the engine — expired-row purging is an
// external housekeeping concern.
type Store interface {
	Insert(ctx context.Context, sess *Session) error
	FindByID(ctx context.Context, id string) (*Session, error)
	FindByToken(ctx context.Context, refreshHash [32]byte) (*Session, error)
	SetValid(ctx context.Context, id string, valid bool) error
	ListValid(ctx context.Context, subjectID string) ([]*Session, error)
	TouchActivity(ctx context.Context, id string, at time.Time) error
}
