package ratelimit

import (
	"context"
	"sync"
	"time"
)

const defaultMaxKeys = 100_000

// Memory is an in-process fixed-window counter store. It is safe for
// concurrent use and suited to single-instance deployments and tests.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*memoryWindow
	maxKeys int
	now     func() time.Time
}

type memoryWindow struct {
	count   int
	started time.Time
}

// NewMemory creates an in-memory store. At most maxKeys distinct keys
// are tracked; expired windows are swept when the cap is reached so a
// key churn attack cannot grow memory without bound. maxKeys <= 0 uses
// a default of 100k.
func NewMemory(maxKeys int) *Memory {
	if maxKeys <= 0 {
		maxKeys = defaultMaxKeys
	}

	return &Memory{
		entries: make(map[string]*memoryWindow),
		maxKeys: maxKeys,
		now:     time.Now,
	}
}

// Allow implements Store.
func (m *Memory) Allow(_ context.Context, key string, cfg Config) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if ok && now.Sub(entry.started) >= cfg.Window {
		// Window elapsed, start a fresh one.
		ok = false
	}

	if !ok {
		if len(m.entries) >= m.maxKeys {
			m.sweepLocked(now, cfg.Window)
		}
		m.entries[key] = &memoryWindow{count: 1, started: now}
		return Decision{Allowed: true, Remaining: cfg.Max - 1}, nil
	}

	entry.count++
	if entry.count > cfg.Max {
		return Decision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: entry.started.Add(cfg.Window).Sub(now),
		}, nil
	}

	return Decision{Allowed: true, Remaining: cfg.Max - entry.count}, nil
}

func (m *Memory) sweepLocked(now time.Time, window time.Duration) {
	for key, entry := range m.entries {
		if now.Sub(entry.started) >= window {
			delete(m.entries, key)
		}
	}
}
