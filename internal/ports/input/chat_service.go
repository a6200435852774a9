package input

import "github.com/JoaoVlLeao/wpp-gemini-bot/internal/domain"

// ChatService interface - Input port (use case)
// Defines what the application can do with inbound channel messages
type ChatService interface {
	// HandleInbound accepts one inbound message event from the channel.
	// It buffers the text into the conversation's aggregation window;
	// the actual response cycle runs asynchronously when the window
	// closes. Returns an error only for pre-processing failures that
	// prevent the message from entering the buffer.
	HandleInbound(msg domain.InboundMessage) error
}
