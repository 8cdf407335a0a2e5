package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/valedict/authgate/session"
)

// SessionStore implements session.Store on PostgreSQL. Rows are never
// deleted here; revocation only flips the valid flag, and purging
// expired rows is external housekeeping.
type SessionStore struct {
	db *pgxpool.Pool
}

var _ session.Store = (*SessionStore)(nil)

const sessionColumns = `id, subject_id, refresh_hash, valid, ip, user_agent, created_at, expires_at, last_activity_at`

func (s *SessionStore) Insert(ctx context.Context, sess *session.Session) error {
	const op = "store.postgres.SessionInsert"

	query := `
		INSERT INTO sessions(id, subject_id, refresh_hash, valid, ip, user_agent, created_at, expires_at, last_activity_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.Exec(ctx, query,
		sess.ID,
		sess.SubjectID,
		sess.RefreshHash[:],
		sess.Valid,
		sess.IP,
		sess.UserAgent,
		sess.CreatedAt,
		sess.ExpiresAt,
		sess.LastActivityAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *SessionStore) FindByID(ctx context.Context, id string) (*session.Session, error) {
	const op = "store.postgres.SessionFindByID"

	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE id = $1
	`

	return scanSession(op, s.db.QueryRow(ctx, query, id))
}

func (s *SessionStore) FindByToken(ctx context.Context, refreshHash [32]byte) (*session.Session, error) {
	const op = "store.postgres.SessionFindByToken"

	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE refresh_hash = $1
	`

	return scanSession(op, s.db.QueryRow(ctx, query, refreshHash[:]))
}

// SetValid is idempotent: flipping a flag to its current value is still
// a success.
func (s *SessionStore) SetValid(ctx context.Context, id string, valid bool) error {
	const op = "store.postgres.SessionSetValid"

	query := `
		UPDATE sessions
		SET valid = $2
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query, id, valid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, session.ErrNotFound)
	}

	return nil
}

func (s *SessionStore) ListValid(ctx context.Context, subjectID string) ([]*session.Session, error) {
	const op = "store.postgres.SessionListValid"

	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE subject_id = $1 AND valid = true AND expires_at > now()
		ORDER BY created_at DESC
	`

	rows, err := s.db.Query(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var sessions []*session.Session
	for rows.Next() {
		sess, err := scanSessionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sessions, nil
}

func (s *SessionStore) TouchActivity(ctx context.Context, id string, at time.Time) error {
	const op = "store.postgres.SessionTouchActivity"

	query := `
		UPDATE sessions
		SET last_activity_at = $2
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, session.ErrNotFound)
	}

	return nil
}

func scanSession(op string, row pgx.Row) (*session.Session, error) {
	sess, err := scanSessionRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, session.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sess, nil
}

func scanSessionRow(row pgx.Row) (*session.Session, error) {
	var (
		sess session.Session
		hash []byte
	)

	err := row.Scan(
		&sess.ID,
		&sess.SubjectID,
		&hash,
		&sess.Valid,
		&sess.IP,
		&sess.UserAgent,
		&sess.CreatedAt,
		&sess.ExpiresAt,
		&sess.LastActivityAt,
	)
	if err != nil {
		return nil, err
	}

	copy(sess.RefreshHash[:], hash)

	return &sess, nil
}
