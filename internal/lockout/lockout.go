package lockout

import "time"

// State is the lockout side of an account: Open accepts attempts,
// Locked rejects them until the lock expires.
type State uint8

const (
	// Open means the account accepts authentication attempts.
	Open State = iota
	// Locked means attempts are rejected until LockedUntil passes.
	Locked
)

func (s State) String() string {
	if s == Locked {
		return "locked"
	}
	return "open"
}

// Config holds the failure threshold and lock duration.
type Config struct {
	Threshold uint32
	Duration  time.Duration
}

// Snapshot is the lockout-relevant slice of a stored account record.
// A zero LockedUntil means no lock has been set.
type Snapshot struct {
	FailedAttempts uint32
	LockedUntil    time.Time
}

// Mutation is the store update a transition requires. Apply is false when
// nothing needs to be persisted. A zero LockedUntil clears the lock.
type Mutation struct {
	Apply          bool
	FailedAttempts uint32
	LockedUntil    time.Time
}

// Evaluate returns the logical state of snap at the given instant, plus the
// mutation needed to bring the stored record in line with it. An expired lock
// evaluates to Open and carries a clearing mutation: callers apply it before
// judging the attempt, so locks release lazily on the next access.
func Evaluate(snap Snapshot, now time.Time) (State, Mutation) {
	if snap.LockedUntil.IsZero() {
		return Open, Mutation{}
	}
	if now.Before(snap.LockedUntil) {
		return Locked, Mutation{}
	}
	// Lock elapsed: counter and lock fields reset together.
	return Open, Mutation{Apply: true}
}

// OnFailure advances the machine after a failed credential check against an
// Open account. Reaching the threshold sets the lock. Callers must not invoke
// this for Locked accounts; locked-state rejections do not count failures.
func OnFailure(snap Snapshot, cfg Config, now time.Time) (State, Mutation) {
	attempts := snap.FailedAttempts + 1
	if cfg.Threshold > 0 && attempts >= cfg.Threshold {
		return Locked, Mutation{
			Apply:          true,
			FailedAttempts: attempts,
			LockedUntil:    now.Add(cfg.Duration),
		}
	}
	return Open, Mutation{Apply: true, FailedAttempts: attempts}
}

// OnSuccess resets the counter after a successful credential check,
// whatever its prior value.
func OnSuccess(snap Snapshot) Mutation {
	if snap.FailedAttempts == 0 && snap.LockedUntil.IsZero() {
		return Mutation{}
	}
	return Mutation{Apply: true}
}
