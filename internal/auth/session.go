package auth

import (
	"context"
	"sync"
	"time"
)

// Session binds the admin flag to an opaque token until ExpiresAt.
type Session struct {
	Token     string    `json:"token" bson:"token"`
	IsAdmin   bool      `json:"isAdmin" bson:"isAdmin"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt"`
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionStore persists sessions keyed by token.
type SessionStore interface {
	Save(ctx context.Context, s Session) error
	// Get reports false when the token is unknown or already expired.
	Get(ctx context.Context, token string) (Session, bool, error)
	Delete(ctx context.Context, token string) error
}

// MemorySessionStore keeps sessions in-process. Expired entries are dropped
// lazily on reads and writes.
type MemorySessionStore struct {
	mu   sync.Mutex
	sess map[string]Session
	now  func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sess: make(map[string]Session),
		now:  time.Now,
	}
}

func (m *MemorySessionStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for token, existing := range m.sess {
		if existing.Expired(now) {
			delete(m.sess, token)
		}
	}
	m.sess[s.Token] = s
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, token string) (Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sess[token]
	if !ok {
		return Session{}, false, nil
	}
	if s.Expired(m.now()) {
		delete(m.sess, token)
		return Session{}, false, nil
	}
	return s, true, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sess, token)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sess)
}
