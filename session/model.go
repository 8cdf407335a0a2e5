package session

import (
	"crypto/sha256"
	"time"
)

// Session is the persisted record of one login event. Rows are never
// physically deleted by the engine: revocation flips Valid to false and the
// row stays behind for audit. Each login creates a new session; re-login
// never mutates existing rows.
type Session struct {
	ID             string
	SubjectID      string
	RefreshHash    [32]byte
	Valid          bool
	IP             string
	UserAgent      string
	CreatedAt      time.Time
	ExpiresAt      time.Time
	LastActivityAt time.Time
}

// Expired reports whether the session's absolute lifetime has elapsed.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// View is the secret-free projection returned to clients listing their
// sessions. The refresh-token hash never leaves the store layer.
type View struct {
	ID             string    `json:"id"`
	IP             string    `json:"ip,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// View strips token material from the session.
func (s *Session) View() View {
	return View{
		ID:             s.ID,
		IP:             s.IP,
		UserAgent:      s.UserAgent,
		CreatedAt:      s.CreatedAt,
		ExpiresAt:      s.ExpiresAt,
		LastActivityAt: s.LastActivityAt,
	}
}

// HashToken derives the stored lookup key from a presented refresh token.
// Only the hash is persisted.
func HashToken(token string) [32]byte {
	return sha256.Sum256([]byte(token))
}
