package ai

import "context"

// LLMProvider sends a prompt to a chat-completion endpoint and returns the raw
// text of the first completion choice. Failures are returned as
// *model.TransportError so the extractor can log and retry them.
type LLMProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
