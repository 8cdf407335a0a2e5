package authgate

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLockout_ThresholdLocksAccount(t *testing.T) {
	engine, store, _ := newTestEngine(t, engineTestConfig())
	registered := registerTestAccount(t, engine)

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := engine.Login(ctx, "user@example.com", "wrong-password-000")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	account := store.get(t, registered.Account.ID)
	if account.LockedUntil.IsZero() {
		t.Fatal("expected lock to be set after five failures")
	}
	if account.FailedAttempts != 5 {
		t.Fatalf("failed attempts = %d, want 5", account.FailedAttempts)
	}

	// Sixth attempt with the correct password is rejected as locked,
	// not as bad credentials.
	_, err := engine.Login(ctx, "user@example.com", "correct-password-123")
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}
}

func TestLockout_LockedRejectionsDoNotExtendLock(t *testing.T) {
	engine, store, _ := newTestEngine(t, engineTestConfig())
	registered := registerTestAccount(t, engine)

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		engine.Login(ctx, "user@example.com", "wrong-password-000")
	}
	lockedUntil := store.get(t, registered.Account.ID).LockedUntil

	// Probing during the lock must not advance the counter or move the
	// lock deadline.
	for i := 0; i < 3; i++ {
		_, err := engine.Login(ctx, "user@example.com", "wrong-password-000")
		if !errors.Is(err, ErrAccountLocked) {
			t.Fatalf("expected ErrAccountLocked, got %v", err)
		}
	}

	account := store.get(t, registered.Account.ID)
	if account.FailedAttempts != 5 {
		t.Fatalf("failed attempts = %d, want 5 (locked probes must not count)", account.FailedAttempts)
	}
	if !account.LockedUntil.Equal(lockedUntil) {
		t.Fatal("lock deadline moved during locked-state probes")
	}
}

func TestLockout_ExpiresLazilyOnNextLogin(t *testing.T) {
	engine, store, clock := newTestEngine(t, engineTestConfig())
	registered := registerTestAccount(t, engine)

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		engine.Login(ctx, "user@example.com", "wrong-password-000")
	}

	clock.Advance(15*time.Minute + time.Second)

	result, err := engine.Login(ctx, "user@example.com", "correct-password-123")
	if err != nil {
		t.Fatalf("login after lock expiry: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected tokens after successful login")
	}

	account := store.get(t, registered.Account.ID)
	if account.FailedAttempts != 0 {
		t.Fatalf("failed attempts = %d, want 0 after successful login", account.FailedAttempts)
	}
	if !account.LockedUntil.IsZero() {
		t.Fatal("expected lock fields cleared")
	}
}

func TestLockout_SuccessResetsCounter(t *testing.T) {
	engine, store, _ := newTestEngine(t, engineTestConfig())
	registered := registerTestAccount(t, engine)

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		engine.Login(ctx, "user@example.com", "wrong-password-000")
	}
	if got := store.get(t, registered.Account.ID).FailedAttempts; got != 3 {
		t.Fatalf("failed attempts = %d, want 3", got)
	}

	if _, err := engine.Login(ctx, "user@example.com", "correct-password-123"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if got := store.get(t, registered.Account.ID).FailedAttempts; got != 0 {
		t.Fatalf("failed attempts = %d, want 0", got)
	}
}

func TestLockout_ExpiredLockClearsOnAuthenticatedRequest(t *testing.T) {
	engine, store, clock := newTestEngine(t, engineTestConfig())
	registered := registerTestAccount(t, engine)

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		engine.Login(ctx, "user@example.com", "wrong-password-000")
	}

	// While locked, the access token from registration is rejected.
	if _, err := engine.Authenticate(ctx, registered.AccessToken); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}

	clock.Advance(16 * time.Minute)

	// Past the deadline the same request clears the lock and proceeds.
	auth, err := engine.Authenticate(ctx, registered.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate after lock expiry: %v", err)
	}
	if auth.SubjectID != registered.Account.ID {
		t.Fatalf("subject = %s, want %s", auth.SubjectID, registered.Account.ID)
	}

	account := store.get(t, registered.Account.ID)
	if account.FailedAttempts != 0 || !account.LockedUntil.IsZero() {
		t.Fatal("expected lock cleared by authenticated request")
	}
}
