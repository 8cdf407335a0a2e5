// Package postgres provides pgx-backed implementations of the account
// and session store interfaces.
//
// Expected schema:
//
//	CREATE TABLE accounts (
//	    id              UUID PRIMARY KEY,
//	    email           TEXT NOT NULL UNIQUE,
//	    username        TEXT NOT NULL UNIQUE,
//	    password_hash   TEXT NOT NULL,
//	    active          BOOLEAN NOT NULL DEFAULT true,
//	    failed_attempts INTEGER NOT NULL DEFAULT 0,
//	    locked_until    TIMESTAMPTZ,
//	    created_at      TIMESTAMPTZ NOT NULL
//	);
//
//	CREATE TABLE sessions (
//	    id               UUID PRIMARY KEY,
//	    subject_id       UUID NOT NULL REFERENCES accounts(id),
//	    refresh_hash     BYTEA NOT NULL UNIQUE,
//	    valid            BOOLEAN NOT NULL DEFAULT true,
//	    ip               TEXT NOT NULL DEFAULT '',
//	    user_agent       TEXT NOT NULL DEFAULT '',
//	    created_at       TIMESTAMPTZ NOT NULL,
//	    expires_at       TIMESTAMPTZ NOT NULL,
//	    last_activity_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX sessions_subject_valid_idx ON sessions(subject_id) WHERE valid;
package postgres
