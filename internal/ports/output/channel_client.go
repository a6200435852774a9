package output

import "context"

// ChannelClient interface - Output port
// Defines what the application needs from the messaging channel.
// The connection lifecycle (webhook registration, token refresh) is the
// adapter's concern; the core only sends.
type ChannelClient interface {
	// SendText sends one outbound text message to a conversation.
	SendText(ctx context.Context, conversationID, text string) error

	// MarkTyping marks the triggering inbound message as read and shows
	// a typing indicator to the customer. The indicator is cleared by the
	// channel when the next message is sent.
	MarkTyping(ctx context.Context, messageID string) error

	// DownloadMedia fetches the raw bytes and MIME type of an inbound
	// media attachment by its channel media identifier.
	DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error)
}
