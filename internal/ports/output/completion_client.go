package output

import "context"

// CompletionClient interface - Output port
// Defines what the application needs from the generative-language backend.
// Single-shot text completion only; no streaming.
type CompletionClient interface {
	// Complete sends an assembled prompt and returns the generated text.
	// Implementations must return domain.ErrEmptyCompletion when the
	// backend answers with empty or whitespace-only output.
	Complete(ctx context.Context, prompt string) (string, error)

	// DescribeMedia sends a media payload (audio or image) together with
	// an instruction and returns the model's transcription/description.
	// Used by the pre-processing stage before text enters the core.
	DescribeMedia(ctx context.Context, mimeType string, data []byte, instruction string) (string, error)
}
