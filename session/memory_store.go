package session

import "sync"

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory Store, used by tests and non-browser callers
type MemoryStore struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

// NewMemoryStore creates a store seeded with the given tokens (either may be empty)
func NewMemoryStore(accessToken, refreshToken string) *MemoryStore {
	return &MemoryStore{
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}

func (m *MemoryStore) Set(accessToken, refreshToken string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accessToken = accessToken
	if refreshToken != "" {
		m.refreshToken = refreshToken
	}
}

func (m *MemoryStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accessToken = ""
	m.refreshToken = ""
}

func (m *MemoryStore) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accessToken
}

func (m *MemoryStore) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshToken
}

func (m *MemoryStore) HasValidSession() bool {
	return m.AccessToken() != ""
}
