package authgate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/valedict/authgate/internal/lockout"
)

// mockAccountStore is an in-memory AccountStore for engine tests.
type mockAccountStore struct {
	mu       sync.Mutex
	accounts map[string]Account

	transitions int
	clears      int
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{accounts: make(map[string]Account)}
}

func (m *mockAccountStore) FindByIdentifier(_ context.Context, identifier string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, account := range m.accounts {
		if account.Email == identifier || account.Username == identifier {
			return account, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (m *mockAccountStore) FindByID(_ context.Context, id string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (m *mockAccountStore) Create(_ context.Context, in CreateAccountInput) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, account := range m.accounts {
		if account.Email == in.Email || account.Username == in.Username {
			return Account{}, ErrAccountExists
		}
	}

	account := Account{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: in.PasswordHash,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	m.accounts[account.ID] = account

	return account, nil
}

func (m *mockAccountStore) ApplyLockoutTransition(_ context.Context, id string, expected uint32, mut lockout.Mutation) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}

	m.transitions++

	// Compare-and-set on the stored counter; a lost race returns the
	// fresh row untouched.
	if account.FailedAttempts == expected && mut.Apply {
		account.FailedAttempts = mut.FailedAttempts
		account.LockedUntil = mut.LockedUntil
		m.accounts[id] = account
	}

	return account, nil
}

func (m *mockAccountStore) ClearLockout(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}

	m.clears++
	account.FailedAttempts = 0
	account.LockedUntil = time.Time{}
	m.accounts[id] = account

	return nil
}

func (m *mockAccountStore) get(t *testing.T, id string) Account {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		t.Fatalf("account %s not in store", id)
	}
	return account
}

func (m *mockAccountStore) setActive(id string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account := m.accounts[id]
	account.Active = active
	m.accounts[id] = account
}

// fakeClock lets tests advance engine time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func engineTestConfig() Config {
	cfg := defaultConfig()
	cfg.Token.Secret = []byte("0123456789abcdef0123456789abcdef")
	// Weak argon2 parameters keep the suite fast.
	cfg.Password = PasswordConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
		MinLength:   10,
	}
	cfg.Audit.Enabled = false
	return cfg
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *mockAccountStore, *fakeClock) {
	t.Helper()

	store := newMockAccountStore()

	engine, err := New().
		WithConfig(cfg).
		WithAccountStore(store).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	clock := newFakeClock()
	engine.now = clock.Now

	return engine, store, clock
}

func registerTestAccount(t *testing.T, engine *Engine) *LoginResult {
	t.Helper()

	result, err := engine.Register(context.Background(), CreateInput{
		Email:    "user@example.com",
		Username: "user",
		Secret:   "correct-password-123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return result
}

func TestBuildRequiresSigningSecret(t *testing.T) {
	cfg := engineTestConfig()
	cfg.Token.Secret = nil

	_, err := New().WithConfig(cfg).WithAccountStore(newMockAccountStore()).Build()
	if err == nil {
		t.Fatal("expected build failure without signing secret")
	}
}

func TestBuildRequiresAccountStore(t *testing.T) {
	_, err := New().WithConfig(engineTestConfig()).Build()
	if err == nil {
		t.Fatal("expected build failure without account store")
	}
}

func TestMetricsSnapshotCounts(t *testing.T) {
	engine, _, _ := newTestEngine(t, engineTestConfig())
	registerTestAccount(t, engine)

	_, err := engine.Login(context.Background(), "user@example.com", "correct-password-123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	snapshot := engine.MetricsSnapshot()
	if snapshot.Counters == nil {
		t.Fatal("expected counters in snapshot")
	}

	var total uint64
	for _, v := range snapshot.Counters {
		total += v
	}
	if total == 0 {
		t.Fatal("expected nonzero counters after login")
	}
}
