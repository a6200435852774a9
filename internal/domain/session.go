package domain

import (
	"sync"
	"time"
)

// Session represents the in-memory state of one conversation thread.
// All mutation goes through methods guarded by an internal mutex so a
// flushing turn, an inbound event, and the idle reaper can touch the same
// session without racing each other.
type Session struct {
	ConversationID string

	mu           sync.Mutex
	messages     []ChatMessage
	displayName  string
	greeted      bool
	lastOrder    *OrderSummary
	lastActiveAt time.Time
	maxTurns     int
}

// NewSession creates an empty session for a conversation identifier.
// maxTurns bounds the retained history to maxTurns exchanges
// (one user message plus one agent message each).
func NewSession(conversationID string, maxTurns int) *Session {
	return &Session{
		ConversationID: conversationID,
		messages:       make([]ChatMessage, 0),
		lastActiveAt:   time.Now(),
		maxTurns:       maxTurns,
	}
}

// AddTurn appends a user message and the agent's answer to the history.
// When the history is at its bound the oldest exchange is dropped first.
func (s *Session) AddTurn(userText, agentText string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.messages) >= s.maxTurns*2 {
		s.messages = s.messages[2:]
	}
	s.messages = append(s.messages,
		ChatMessage{Role: ChatMessageRoleUser, Content: userText},
		ChatMessage{Role: ChatMessageRoleAgent, Content: agentText},
	)
}

// History returns a copy of the conversation history
func (s *Session) History() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]ChatMessage, len(s.messages))
	copy(history, s.messages)
	return history
}

// SetDisplayNameOnce records the contact name from the first inbound event
// that carries one. Later events never overwrite it.
func (s *Session) SetDisplayNameOnce(name string) {
	if name == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.displayName == "" {
		s.displayName = name
	}
}

// DisplayName returns the recorded contact name, if any
func (s *Session) DisplayName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayName
}

// Greeted reports whether the first response cycle has completed
func (s *Session) Greeted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.greeted
}

// MarkGreeted flips the greeted flag. The flag is monotonic: once a
// session has been greeted it stays greeted for its lifetime.
func (s *Session) MarkGreeted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.greeted = true
}

// SetOrder caches an order summary on the session. The summary is sticky:
// it is only replaced by a newer successful lookup, never cleared here.
func (s *Session) SetOrder(summary *OrderSummary) {
	if summary == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOrder = summary
}

// Order returns the cached order summary, or nil when no lookup has
// succeeded yet for this conversation.
func (s *Session) Order() *OrderSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOrder
}

// Touch updates the last-activity timestamp used for idle reaping
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActiveAt = time.Now()
}

// IdleFor returns how long the session has been without completed activity
func (s *Session) IdleFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActiveAt)
}

// SetLastActiveAt overrides the activity timestamp. Intended for tests
// and for stores restoring a known state.
func (s *Session) SetLastActiveAt(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActiveAt = t
}
