// Package authgate is an embeddable authentication and session
// security engine: credential verification with automatic account
// lockout, signed access/refresh tokens, revocable multi-device
// sessions, per-route rate limiting, and double-submit CSRF protection.
//
// Build an engine with the builder:
//
//	engine, err := authgate.New().
//		WithConfig(cfg).
//		WithAccountStore(accounts).
//		WithSessionStore(sessions).
//		Build()
//
// The engine is transport-agnostic; the middleware and httpapi packages
// provide net/http wiring on top of it.
package authgate
