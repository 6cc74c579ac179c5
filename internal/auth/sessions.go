package auth

import (
	"sync"
	"time"
)

// MemorySessions keeps sessions in process. A restart signs everyone out.
type MemorySessions struct {
	mu            sync.RWMutex
	byID          map[string]Session
	idByTokenHash map[string]string
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{
		byID:          map[string]Session{},
		idByTokenHash: map[string]string{},
	}
}

func (m *MemorySessions) Create(s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[s.ID] = s
	m.idByTokenHash[s.TokenHash] = s.ID
}

func (m *MemorySessions) GetByTokenHash(hash string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.idByTokenHash[hash]
	if !ok {
		return Session{}, false
	}
	s, ok := m.byID[id]
	return s, ok
}

func (m *MemorySessions) Touch(id string, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.byID[id]; ok {
		s.LastSeen = now
		m.byID[id] = s
	}
}

func (m *MemorySessions) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.byID[id]; ok {
		delete(m.idByTokenHash, s.TokenHash)
		delete(m.byID, id)
	}
}

// PruneExpired drops sessions whose expiry is before now and reports how
// many were removed.
func (m *MemorySessions) PruneExpired(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.byID {
		if now.After(s.ExpiresAt) {
			delete(m.idByTokenHash, s.TokenHash)
			delete(m.byID, id)
			n++
		}
	}
	return n
}

func (m *MemorySessions) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}
