package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultMaxSessions bounds the session table when no capacity is configured.
const DefaultMaxSessions = 256

// Session is a client session created through POST /sessions.
type Session struct {
	ID        string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
}

// SessionStore keeps at most a fixed number of sessions, evicting the least
// recently used one when full.
type SessionStore struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *Session]
	now   func() time.Time
}

// NewSessionStore creates a store holding up to capacity sessions.
func NewSessionStore(capacity int) (*SessionStore, error) {
	if capacity <= 0 {
		capacity = DefaultMaxSessions
	}
	cache, err := lru.NewWithEvict(capacity, func(id string, _ *Session) {
		activeSessions.Dec()
		zap.L().Debug("session evicted", zap.String("session_id", id))
	})
	if err != nil {
		return nil, eris.Wrap(err, "server: create session cache")
	}
	return &SessionStore{cache: cache, now: time.Now}, nil
}

// Create registers a new session and returns it.
func (s *SessionStore) Create() *Session {
	now := s.now()
	sess := &Session{ID: uuid.NewString(), CreatedAt: now, LastSeen: now}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Add(sess.ID, sess)
	activeSessions.Inc()
	return sess
}

// Touch marks the session as used. It reports false for unknown or evicted ids.
func (s *SessionStore) Touch(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.cache.Get(id)
	if !ok {
		return false
	}
	sess.LastSeen = s.now()
	return true
}

// Delete removes the session. It reports false if it did not exist.
func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Remove(id)
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	return s.cache.Len()
}
