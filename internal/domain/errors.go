package domain

import "errors"

var (
	// ErrCompletionUnavailable indicates the text-completion backend is unreachable
	ErrCompletionUnavailable = errors.New("completion service unavailable")

	// ErrEmptyCompletion indicates the backend returned no usable text
	ErrEmptyCompletion = errors.New("completion returned empty text")

	// ErrOrderBackendUnavailable indicates the commerce backend errored or timed out
	ErrOrderBackendUnavailable = errors.New("order backend unavailable")

	// ErrChannelSend indicates an outbound channel send failed
	ErrChannelSend = errors.New("channel send failed")

	// ErrInvalidRequest indicates an invalid request was made (4xx client errors)
	ErrInvalidRequest = errors.New("invalid request")
)
