package ratelimit

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable reports that the backing counter store could not be
// reached. Callers decide whether to fail open or closed.
var ErrUnavailable = errors.New("rate limit store unavailable")

// Config describes one fixed-window policy.
type Config struct {
	// Window is the fixed window duration.
	Window time.Duration
	// Max is the number of requests admitted per window per key.
	Max int
}

// Decision is the outcome of a single admission check.
type Decision struct {
	Allowed   bool
	Remaining int
	// RetryAfter is the time until the current window resets. Only
	// meaningful when Allowed is false.
	RetryAfter time.Duration
}

// Store counts requests per key in fixed windows.
//
// Allow increments the counter for key and reports whether the request
// is within budget. Counting is atomic per key: concurrent callers never
// both consume the last slot.
type Store interface {
	Allow(ctx context.Context, key string, cfg Config) (Decision, error)
}

// Key builds the canonical counter key for a policy class and client
// address, e.g. "auth:203.0.113.7".
func Key(class, addr string) string {
	return class + ":" + addr
}
