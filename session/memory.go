package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process [Store] for single-node deployments and
// tests. State does not survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*Session
	byToken map[[32]byte]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*Session),
		byToken: make(map[[32]byte]string),
	}
}

func (m *MemoryStore) Insert(_ context.Context, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *sess
	m.byID[cp.ID] = &cp
	m.byToken[cp.RefreshHash] = cp.ID
	return nil
}

func (m *MemoryStore) FindByID(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (m *MemoryStore) FindByToken(_ context.Context, refreshHash [32]byte) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byToken[refreshHash]
	if !ok {
		return nil, ErrNotFound
	}
	sess, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (m *MemoryStore) SetValid(_ context.Context, id string, valid bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	sess.Valid = valid
	return nil
}

func (m *MemoryStore) ListValid(_ context.Context, subjectID string) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Session
	for _, sess := range m.byID {
		if sess.SubjectID == subjectID && sess.Valid {
			cp := *sess
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryStore) TouchActivity(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	sess.LastActivityAt = at
	return nil
}
