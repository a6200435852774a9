package memory

import (
	"sync"
	"time"

	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/domain"
	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/ports/output"
)

// Compile-time check to ensure TranscriptLog implements the output port
var _ output.TranscriptRepository = (*TranscriptLog)(nil)

// TranscriptEntry is one logged message
type TranscriptEntry struct {
	ConversationID string
	Direction      domain.MessageDirection
	Body           string
	CreatedAt      time.Time
}

// TranscriptLog struct - Output adapter keeping a bounded in-memory ring
// of message-log entries. Used when no transcript database is configured.
type TranscriptLog struct {
	mu      sync.Mutex
	entries []TranscriptEntry
	limit   int
}

// NewTranscriptLog creates an in-memory transcript log bounded to limit
// entries (oldest dropped first).
func NewTranscriptLog(limit int) *TranscriptLog {
	if limit <= 0 {
		limit = 1000
	}
	return &TranscriptLog{limit: limit}
}

// Record stores one message-log entry
func (l *TranscriptLog) Record(conversationID string, direction domain.MessageDirection, body string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) >= l.limit {
		l.entries = l.entries[1:]
	}
	l.entries = append(l.entries, TranscriptEntry{
		ConversationID: conversationID,
		Direction:      direction,
		Body:           body,
		CreatedAt:      time.Now(),
	})
	return nil
}

// Entries returns a copy of the logged entries in insertion order
func (l *TranscriptLog) Entries() []TranscriptEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]TranscriptEntry, len(l.entries))
	copy(entries, l.entries)
	return entries
}
