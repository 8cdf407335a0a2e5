// Package middleware provides net/http handler wrappers over the
// authgate engine: client metadata capture, required and optional
// bearer authentication, per-class rate limiting, and CSRF checks for
// mutating methods.
package middleware
