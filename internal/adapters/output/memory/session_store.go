package memory

import (
	"sync"
	"time"

	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/domain"
	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/ports/output"

	"github.com/sirupsen/logrus"
)

// Compile-time check to ensure SessionStore implements the output port
var _ output.SessionStore = (*SessionStore)(nil)

// SessionStore struct - Output adapter for in-memory session storage.
// Uses sync.Map for safe concurrent insertion, lookup, and deletion;
// sessions themselves serialize their own field access. State lives only
// for the process lifetime - there is deliberately no persistence.
type SessionStore struct {
	sessions sync.Map
	maxTurns int
}

// NewSessionStore creates a new in-memory session store.
// maxTurns: maximum number of conversation exchanges retained per session.
func NewSessionStore(maxTurns int) *SessionStore {
	return &SessionStore{
		maxTurns: maxTurns,
	}
}

// GetOrCreate returns the session for a conversation identifier, lazily
// creating it with empty defaults the first time the identifier is seen.
// Concurrent callers for the same identifier all receive the same session.
func (m *SessionStore) GetOrCreate(conversationID string) *domain.Session {
	if value, ok := m.sessions.Load(conversationID); ok {
		return value.(*domain.Session)
	}
	created := domain.NewSession(conversationID, m.maxTurns)
	actual, loaded := m.sessions.LoadOrStore(conversationID, created)
	if loaded {
		return actual.(*domain.Session)
	}
	logrus.Infof("Created session for conversation %s", conversationID)
	return created
}

// Delete removes a conversation session. Idempotent.
func (m *SessionStore) Delete(conversationID string) {
	m.sessions.Delete(conversationID)
}

// Sweep removes every session idle for longer than the threshold and
// returns the number reaped. A session whose flush is in flight may be
// reaped by key; the flush completes against its own pointer and the
// conversation recreates cleanly on the next inbound event.
func (m *SessionStore) Sweep(idleThreshold time.Duration) int {
	reaped := 0
	m.sessions.Range(func(key, value any) bool {
		session := value.(*domain.Session)
		if idle := session.IdleFor(); idle > idleThreshold {
			m.sessions.Delete(key)
			reaped++
			logrus.Infof("Reaped idle session %s (%.1f min without activity)", key, idle.Minutes())
		}
		return true
	})
	return reaped
}

// Len returns the number of live sessions
func (m *SessionStore) Len() int {
	n := 0
	m.sessions.Range(func(key, value any) bool {
		n++
		return true
	})
	return n
}
