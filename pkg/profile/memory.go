package profile

import (
	"context"
	"strings"
	"sync"
)

type memoryRecord struct {
	profile      Profile
	passwordHash string
}

// MemoryStore keeps profiles in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*memoryRecord
	byEmail map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    map[string]*memoryRecord{},
		byEmail: map[string]string{},
	}
}

func (m *MemoryStore) Create(_ context.Context, p Profile, passwordHash string) error {
	if p.ID == "" {
		return ErrInvalidID
	}
	email := strings.ToLower(p.Email)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[email]; ok {
		return ErrEmailTaken
	}
	m.byID[p.ID] = &memoryRecord{profile: clone(p), passwordHash: passwordHash}
	m.byEmail[email] = p.ID
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.byID[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return clone(rec.profile), nil
}

func (m *MemoryStore) FindByEmail(_ context.Context, email string) (Profile, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return Profile{}, "", ErrNotFound
	}
	rec := m.byID[id]
	return clone(rec.profile), rec.passwordHash, nil
}

func (m *MemoryStore) Update(_ context.Context, id string, patch Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	if patch.Empty() {
		return nil
	}
	patch.apply(&rec.profile)
	return nil
}

func (m *MemoryStore) ListAll(_ context.Context, sortKey string) ([]Profile, error) {
	m.mu.RLock()
	out := make([]Profile, 0, len(m.byID))
	for _, rec := range m.byID {
		out = append(out, clone(rec.profile))
	}
	m.mu.RUnlock()

	if err := sortProfiles(out, sortKey); err != nil {
		return nil, err
	}
	return out, nil
}
