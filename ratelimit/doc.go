// Package ratelimit provides fixed-window request counting keyed by
// policy class and client address.
//
// # Window semantics
//
// Each (class, address) pair gets an independent counter. The first
// request in a window starts it; once Max requests are counted, further
// requests are rejected until the window elapses. Windows are never
// sliding.
//
// Two Store implementations are provided: Memory for single-instance
// deployments and tests, and Redis (INCR + conditional EXPIRE) for
// fleet-wide limits.
package ratelimit
