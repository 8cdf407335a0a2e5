// Package lockout implements the failed-login lockout state machine as a
// pure function of an account snapshot and a clock instant.
//
// # Design
//
// Transitions never touch a store themselves; they return a [Mutation] that
// the caller persists through a conditional update keyed on the counter it
// read. This keeps the machine testable without a live clock or store, and
// makes concurrent transitions on one account resolve through store-level
// compare-and-set instead of in-process locks.
//
// # What this package must NOT do
//
//   - Perform I/O of any kind.
//   - Import any sibling package.
package lockout
