package domain

import "time"

// ChatMessageRole represents the author of a conversation turn
type ChatMessageRole string

const (
	// ChatMessageRoleUser - message written by the customer
	ChatMessageRoleUser ChatMessageRole = "user"
	// ChatMessageRoleAgent - message written by the support agent
	ChatMessageRoleAgent ChatMessageRole = "agent"
)

// ChatMessage represents one entry in a conversation history
type ChatMessage struct {
	Role    ChatMessageRole
	Content string
}

// InboundMessageType represents the type of an inbound channel message
type InboundMessageType string

const (
	// InboundMessageTypeText - Plain text message
	InboundMessageTypeText InboundMessageType = "text"
	// InboundMessageTypeAudio - Voice note or audio file
	InboundMessageTypeAudio InboundMessageType = "audio"
	// InboundMessageTypeImage - Image message
	InboundMessageTypeImage InboundMessageType = "image"
	// InboundMessageTypeVideo - Video message
	InboundMessageTypeVideo InboundMessageType = "video"
	// InboundMessageTypeDocument - Document attachment
	InboundMessageTypeDocument InboundMessageType = "document"
	// InboundMessageTypeSticker - Sticker message
	InboundMessageTypeSticker InboundMessageType = "sticker"
	// InboundMessageTypeUnknown - Anything the channel adapter cannot classify
	InboundMessageTypeUnknown InboundMessageType = "unknown"
)

// InboundMessage represents one message event delivered by the messaging
// channel (domain entity). ConversationID is the channel-provided stable
// identifier of the chat thread; for WhatsApp this is the sender's wa_id.
type InboundMessage struct {
	ConversationID string
	MessageID      string
	DisplayName    string
	Type           InboundMessageType
	Text           string
	MediaID        string
	MimeType       string
	Timestamp      time.Time
}
