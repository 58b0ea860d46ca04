package storage

import (
	"sync"

	"github.com/google/uuid"

	"github.com/profilesketch/sketcher/internal/session"
)

// SessionStore keeps the live sessions of the web interface in memory
type SessionStore struct {
	sessions map[string]*session.Session
	mu       sync.RWMutex
}

func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session.Session),
	}
}

// NewID returns a fresh random session identifier
func NewID() string {
	return uuid.NewString()
}

func (s *SessionStore) Get(sessionID string) (*session.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, exists := s.sessions[sessionID]
	return sess, exists
}

func (s *SessionStore) Set(sessionID string, sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = sess
}

func (s *SessionStore) GetAll() map[string]*session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*session.Session, len(s.sessions))
	for k, v := range s.sessions {
		result[k] = v
	}
	return result
}

// Delete removes a session and releases its resources
func (s *SessionStore) Delete(sessionID string) bool {
	s.mu.Lock()
	sess, exists := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if exists {
		sess.Close()
	}
	return exists
}
