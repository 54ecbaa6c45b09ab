// ABOUTME: StreamEvent domain model for decoded incremental response events
// ABOUTME: One event corresponds to one line of a newline-delimited JSON stream

package domain

// Stream event types as emitted by the backend.
const (
	StreamEventToken = "token"
	StreamEventUsage = "usage"
	StreamEventError = "error"
)

// StreamEvent is one decoded line of an incremental chat response.
// Token events carry Text; usage events are terminal and carry token
// accounting; error events are terminal and carry Message.
type StreamEvent struct {
	Type string `json:"type"`

	// Text is the appended answer fragment for token events
	Text string `json:"text,omitempty"`

	// Message is the failure description for error events
	Message string `json:"message,omitempty"`

	// Usage accounting, present on usage events
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// Terminal reports whether the event ends the stream.
func (e StreamEvent) Terminal() bool {
	return e.Type == StreamEventUsage || e.Type == StreamEventError
}
