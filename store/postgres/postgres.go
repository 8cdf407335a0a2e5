package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Storage provides the account and session stores over one pgx pool.
type Storage struct {
	db *pgxpool.Pool
}

// New connects to PostgreSQL and verifies the connection.
func New(ctx context.Context, dbURL string) (*Storage, error) {
	const op = "store.postgres.New"

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

// Close releases the connection pool.
func (s *Storage) Close() {
	s.db.Close()
}

// Accounts returns the account store view of this storage.
func (s *Storage) Accounts() *AccountStore {
	return &AccountStore{db: s.db}
}

// Sessions returns the session store view of this storage.
func (s *Storage) Sessions() *SessionStore {
	return &SessionStore{db: s.db}
}
