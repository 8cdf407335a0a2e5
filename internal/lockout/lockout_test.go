package lockout

import (
	"testing"
	"time"
)

var testCfg = Config{Threshold: 5, Duration: 15 * time.Minute}

func TestEvaluateZeroSnapshotIsOpen(t *testing.T) {
	state, mut := Evaluate(Snapshot{}, time.Now())
	if state != Open {
		t.Fatalf("expected Open, got %v", state)
	}
	if mut.Apply {
		t.Fatal("expected no mutation for a clean account")
	}
}

func TestEvaluateActiveLock(t *testing.T) {
	now := time.Now()
	snap := Snapshot{FailedAttempts: 5, LockedUntil: now.Add(10 * time.Minute)}

	state, mut := Evaluate(snap, now)
	if state != Locked {
		t.Fatalf("expected Locked, got %v", state)
	}
	if mut.Apply {
		t.Fatal("active lock must not produce a mutation")
	}
}

func TestEvaluateExpiredLockClearsLazily(t *testing.T) {
	now := time.Now()
	snap := Snapshot{FailedAttempts: 5, LockedUntil: now.Add(-time.Second)}

	state, mut := Evaluate(snap, now)
	if state != Open {
		t.Fatalf("expected Open after lock expiry, got %v", state)
	}
	if !mut.Apply {
		t.Fatal("expected clearing mutation")
	}
	if mut.FailedAttempts != 0 || !mut.LockedUntil.IsZero() {
		t.Fatalf("expected zeroed mutation, got %+v", mut)
	}
}

func TestEvaluateBoundaryInstantReleases(t *testing.T) {
	// now == LockedUntil is not "before", so the lock is already released.
	now := time.Now()
	snap := Snapshot{FailedAttempts: 5, LockedUntil: now}

	state, _ := Evaluate(snap, now)
	if state != Open {
		t.Fatalf("lock must release once now >= lockedUntil, got %v", state)
	}
}

func TestOnFailureBelowThreshold(t *testing.T) {
	now := time.Now()

	for prior := uint32(0); prior < testCfg.Threshold-1; prior++ {
		state, mut := OnFailure(Snapshot{FailedAttempts: prior}, testCfg, now)
		if state != Open {
			t.Fatalf("attempt %d: expected Open, got %v", prior+1, state)
		}
		if !mut.Apply || mut.FailedAttempts != prior+1 {
			t.Fatalf("attempt %d: expected counter %d, got %+v", prior+1, prior+1, mut)
		}
		if !mut.LockedUntil.IsZero() {
			t.Fatalf("attempt %d: no lock expected below threshold", prior+1)
		}
	}
}

func TestOnFailureThresholdLocks(t *testing.T) {
	now := time.Now()
	snap := Snapshot{FailedAttempts: testCfg.Threshold - 1}

	state, mut := OnFailure(snap, testCfg, now)
	if state != Locked {
		t.Fatalf("expected Locked at threshold, got %v", state)
	}
	want := now.Add(testCfg.Duration)
	if !mut.LockedUntil.Equal(want) {
		t.Fatalf("expected lockedUntil %v, got %v", want, mut.LockedUntil)
	}
	if mut.FailedAttempts != testCfg.Threshold {
		t.Fatalf("expected counter %d, got %d", testCfg.Threshold, mut.FailedAttempts)
	}
}

func TestOnSuccessResetsWhateverThePriorCount(t *testing.T) {
	for _, prior := range []uint32{1, 3, 250} {
		mut := OnSuccess(Snapshot{FailedAttempts: prior})
		if !mut.Apply {
			t.Fatalf("prior=%d: expected reset mutation", prior)
		}
		if mut.FailedAttempts != 0 || !mut.LockedUntil.IsZero() {
			t.Fatalf("prior=%d: expected zeroed mutation, got %+v", prior, mut)
		}
	}
}

func TestOnSuccessNoOpWhenAlreadyClean(t *testing.T) {
	if mut := OnSuccess(Snapshot{}); mut.Apply {
		t.Fatal("clean account must not produce a mutation")
	}
}
