package ai

import "context"

// Conversation is a stateful model session: prior turns stay part of
// the context for every subsequent Send. Implementations are not safe
// for concurrent use; the session cache serializes access per key.
type Conversation interface {
	Send(ctx context.Context, text string) (string, error)
}

// Gateway wraps a remote generative-model provider. Each Send or
// GenerateOnce consumes one billable model round-trip and may fail or
// return malformed output; implementations never retry silently.
type Gateway interface {
	// NewConversation opens a fresh session with the given system
	// instruction, with output constrained to the JSON schema where the
	// provider supports structured output.
	NewConversation(ctx context.Context, systemInstruction string, schema map[string]any) (Conversation, error)

	// GenerateOnce performs a stateless single-shot call.
	GenerateOnce(ctx context.Context, prompt string, schema map[string]any) (string, error)
}
