package output

import "github.com/JoaoVlLeao/wpp-gemini-bot/internal/domain"

// TranscriptRepository interface - Output port
// Best-effort audit log of messages crossing the channel. Failures are
// logged by callers and never block a response cycle.
type TranscriptRepository interface {
	// Record stores one message-log entry.
	Record(conversationID string, direction domain.MessageDirection, body string) error
}
