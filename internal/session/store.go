package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"docqa/internal/corpus"
	"docqa/internal/service"
)

// Session binds an uploaded document's indexed corpus to an opaque ID.
// The corpus is immutable once the session is stored; sessions are only
// ever inserted or evicted as whole entries.
type Session struct {
	ID        string
	Filename  string
	Corpus    *corpus.Corpus
	CreatedAt time.Time
}

// New creates a session with a fresh UUID.
func New(filename string, c *corpus.Corpus) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Filename:  filename,
		Corpus:    c,
		CreatedAt: time.Now(),
	}
}

// Store holds sessions by ID. Lifecycle policy (when sessions are created
// and expired) belongs to the caller; the store only keeps entries.
type Store interface {
	// Get returns the session, or an error wrapping service.ErrNotFound
	// when the ID is unknown or expired.
	Get(id string) (*Session, error)
	// Put stores the session under its ID.
	Put(s *Session)
	// Evict removes the session. Evicting an unknown ID is a no-op.
	Evict(id string)
}

// MemoryStore is an in-process Store with time-based expiry. Reads take a
// shared lock; the corpora inside are read-only so concurrent queries
// against one session need no further synchronization.
type MemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]*Session
}

// NewMemoryStore creates a store whose sessions expire after ttl.
// ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, evicting it first when expired.
func (m *MemoryStore) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok && m.expired(s) {
		m.Evict(id)
		ok = false
	}
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, service.ErrNotFound)
	}
	return s, nil
}

// Put stores the session under its ID.
func (m *MemoryStore) Put(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}

// Evict removes the session.
func (m *MemoryStore) Evict(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Sweep removes all expired sessions and returns how many were dropped.
// Meant to be called periodically from a background goroutine.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	dropped := 0
	for id, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, id)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of stored sessions, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MemoryStore) expired(s *Session) bool {
	return m.ttl > 0 && time.Since(s.CreatedAt) > m.ttl
}
