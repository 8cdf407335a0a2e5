package authgate

import (
	"context"
	"errors"
	"testing"
)

func loginN(t *testing.T, engine *Engine, n int) []*LoginResult {
	t.Helper()

	results := make([]*LoginResult, 0, n)
	for i := 0; i < n; i++ {
		result, err := engine.Login(context.Background(), "user@example.com", "correct-password-123")
		if err != nil {
			t.Fatalf("login %d: %v", i+1, err)
		}
		results = append(results, result)
	}
	return results
}

func TestSessionsListsAllDevices(t *testing.T) {
	engine, _, _ := newTestEngine(t, engineTestConfig())
	registered := registerTestAccount(t, engine)
	loginN(t, engine, 2)

	views, err := engine.Sessions(context.Background(), registered.Account.ID)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}

	// Registration plus two logins.
	if len(views) != 3 {
		t.Fatalf("sessions = %d, want 3", len(views))
	}
}

func TestRevokeSessionLeavesOthersValid(t *testing.T) {
	engine, _, _ := newTestEngine(t, engineTestConfig())
	registered := registerTestAccount(t, engine)
	logins := loginN(t, engine, 2)

	if err := engine.RevokeSession(context.Background(), registered.Account.ID, logins[0].SessionID); err != nil {
		t.Fatalf("RevokeSession: %v", err)
	}

	// The revoked session can no longer refresh; the others still can.
	if _, err := engine.Refresh(context.Background(), logins[0].RefreshToken); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("revoked session refresh: got %v", err)
	}
	if _, err := engine.Refresh(context.Background(), logins[1].RefreshToken); err != nil {
		t.Fatalf("sibling session refresh: %v", err)
	}
	if _, err := engine.Refresh(context.Background(), registered.RefreshToken); err != nil {
		t.Fatalf("registration session refresh: %v", err)
	}
}

func TestRevokeSessionIdempotent(t *testing.T) {
	engine, _, _ := newTestEngine(t, engineTestConfig())
	registered := registerTestAccount(t, engine)

	for i := 0; i < 2; i++ {
		if err := engine.RevokeSession(context.Background(), registered.Account.ID, registered.SessionID); err != nil {
			t.Fatalf("revoke %d: %v", i+1, err)
		}
	}
}

func TestRevokeSessionOwnershipEnforced(t *testing.T) {
	engine, _, _ := newTestEngine(t, engineTestConfig())
	registered := registerTestAccount(t, engine)

	other, err := engine.Register(context.Background(), CreateInput{
		Email:    "other@example.com",
		Username: "other",
		Secret:   "other-password-123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Foreign sessions look exactly like missing ones.
	err = engine.RevokeSession(context.Background(), other.Account.ID, registered.SessionID)
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	// The targeted session is untouched.
	if _, err := engine.Refresh(context.Background(), registered.RefreshToken); err != nil {
		t.Fatalf("Refresh after foreign revoke attempt: %v", err)
	}
}

func TestRevokeUnknownSession(t *testing.T) {
	engine, _, _ := newTestEngine(t, engineTestConfig())
	registered := registerTestAccount(t, engine)

	err := engine.RevokeSession(context.Background(), registered.Account.ID, "no-such-session")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRevokeAll(t *testing.T) {
	engine, _, _ := newTestEngine(t, engineTestConfig())
	registered := registerTestAccount(t, engine)
	logins := loginN(t, engine, 2)

	revoked, err := engine.RevokeAll(context.Background(), registered.Account.ID)
	if err != nil {
		t.Fatalf("RevokeAll: %v", err)
	}
	if revoked != 3 {
		t.Fatalf("revoked = %d, want 3", revoked)
	}

	for _, result := range append(logins, registered) {
		if _, err := engine.Refresh(context.Background(), result.RefreshToken); !errors.Is(err, ErrSessionInvalid) {
			t.Fatalf("session %s still refreshable: %v", result.SessionID, err)
		}
	}

	views, err := engine.Sessions(context.Background(), registered.Account.ID)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("valid sessions after RevokeAll = %d, want 0", len(views))
	}
}

func TestLogoutIdempotentOnRevokedSession(t *testing.T) {
	engine, _, _ := newTestEngine(t, engineTestConfig())
	registered := registerTestAccount(t, engine)

	if err := engine.Logout(context.Background(), registered.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	// A second logout against the same session is still a success.
	if err := engine.Logout(context.Background(), registered.RefreshToken); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
}

func TestSessionViewsCarryNoSecrets(t *testing.T) {
	engine, _, _ := newTestEngine(t, engineTestConfig())
	registered := registerTestAccount(t, engine)

	views, err := engine.Sessions(context.Background(), registered.Account.ID)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("sessions = %d, want 1", len(views))
	}
	if views[0].ID != registered.SessionID {
		t.Fatalf("view id = %s, want %s", views[0].ID, registered.SessionID)
	}
}
