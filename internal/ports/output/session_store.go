package output

import (
	"time"

	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/domain"
)

// SessionStore interface - Output port
// Process-wide mapping from conversation identifier to session state.
// Implementations must be safe for concurrent insertion, lookup, and
// deletion; per-session field access is serialized by the session itself.
type SessionStore interface {
	// GetOrCreate returns the session for a conversation identifier,
	// lazily creating it with empty defaults on first sight. Idempotent:
	// concurrent callers for the same identifier receive the same session.
	GetOrCreate(conversationID string) *domain.Session

	// Delete removes a session. Idempotent.
	Delete(conversationID string)

	// Sweep removes every session idle for longer than the threshold and
	// returns how many were reaped. Invoked on a recurring interval.
	Sweep(idleThreshold time.Duration) int
}
