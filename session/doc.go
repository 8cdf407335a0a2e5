// Package session defines the refresh-bound session model and its
// persistence contract.
//
// # Architecture boundaries
//
// This package owns the [Session] model, the [Store] interface, and the
// in-memory implementation. The Postgres implementation lives in
// store/postgres. It does NOT interpret tokens or enforce authentication
// policy — those responsibilities belong to the Engine.
//
// # What this package must NOT do
//
//   - Import authgate, token, or any exporter package (no upward imports).
//   - Store plaintext refresh tokens; only [HashToken] output is persisted.
//   - Physically delete rows; revocation only flips the validity flag.
package session
