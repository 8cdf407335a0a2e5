package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/valedict/authgate"
	"github.com/valedict/authgate/internal/lockout"
)

// AccountStore implements authgate.AccountStore on PostgreSQL.
type AccountStore struct {
	db *pgxpool.Pool
}

var _ authgate.AccountStore = (*AccountStore)(nil)

const accountColumns = `id, email, username, password_hash, active, failed_attempts, locked_until, created_at`

// FindByIdentifier resolves a login identifier against email or username.
func (s *AccountStore) FindByIdentifier(ctx context.Context, identifier string) (authgate.Account, error) {
	const op = "store.postgres.FindByIdentifier"

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE email = lower($1) OR username = $1
	`

	return s.scanOne(ctx, op, query, identifier)
}

func (s *AccountStore) FindByID(ctx context.Context, id string) (authgate.Account, error) {
	const op = "store.postgres.FindByID"

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1
	`

	return s.scanOne(ctx, op, query, id)
}

func (s *AccountStore) Create(ctx context.Context, in authgate.CreateAccountInput) (authgate.Account, error) {
	const op = "store.postgres.Create"

	account := authgate.Account{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: in.PasswordHash,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}

	query := `
		INSERT INTO accounts(id, email, username, password_hash, active, failed_attempts, locked_until, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, NULL, $6)
	`

	_, err := s.db.Exec(ctx, query,
		account.ID,
		account.Email,
		account.Username,
		account.PasswordHash,
		account.Active,
		account.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return authgate.Account{}, fmt.Errorf("%s: %w", op, authgate.ErrAccountExists)
		}

		return authgate.Account{}, fmt.Errorf("%s: %w: %v", op, authgate.ErrStoreUnavailable, err)
	}

	return account, nil
}

// ApplyLockoutTransition is a compare-and-set on the lockout fields:
// the update lands only while the stored counter still equals expected.
// Losing the race returns the fresh row without error.
func (s *AccountStore) ApplyLockoutTransition(ctx context.Context, id string, expected uint32, m lockout.Mutation) (authgate.Account, error) {
	const op = "store.postgres.ApplyLockoutTransition"

	if !m.Apply {
		return s.FindByID(ctx, id)
	}

	var lockedUntil *time.Time
	if !m.LockedUntil.IsZero() {
		until := m.LockedUntil.UTC()
		lockedUntil = &until
	}

	query := `
		UPDATE accounts
		SET failed_attempts = $3, locked_until = $4
		WHERE id = $1 AND failed_attempts = $2
		RETURNING ` + accountColumns

	account, err := scanAccount(s.db.QueryRow(ctx, query, id, expected, m.FailedAttempts, lockedUntil))
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return authgate.Account{}, fmt.Errorf("%s: %w: %v", op, authgate.ErrStoreUnavailable, err)
	}

	// No row matched: either a concurrent transition advanced the
	// counter first, or the account is gone. Re-read to tell the two
	// apart.
	return s.FindByID(ctx, id)
}

func (s *AccountStore) ClearLockout(ctx context.Context, id string) error {
	const op = "store.postgres.ClearLockout"

	query := `
		UPDATE accounts
		SET failed_attempts = 0, locked_until = NULL
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", op, authgate.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, authgate.ErrAccountNotFound)
	}

	return nil
}

func (s *AccountStore) scanOne(ctx context.Context, op, query string, args ...any) (authgate.Account, error) {
	account, err := scanAccount(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authgate.Account{}, fmt.Errorf("%s: %w", op, authgate.ErrAccountNotFound)
		}

		return authgate.Account{}, fmt.Errorf("%s: %w: %v", op, authgate.ErrStoreUnavailable, err)
	}

	return account, nil
}

func scanAccount(row pgx.Row) (authgate.Account, error) {
	var (
		account     authgate.Account
		lockedUntil *time.Time
	)

	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.Username,
		&account.PasswordHash,
		&account.Active,
		&account.FailedAttempts,
		&lockedUntil,
		&account.CreatedAt,
	)
	if err != nil {
		return authgate.Account{}, err
	}

	if lockedUntil != nil {
		account.LockedUntil = *lockedUntil
	}

	return account, nil
}
