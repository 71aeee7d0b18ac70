package core

import "context"

// Prompt is what the chat layer hands to an inference gateway.
// DocumentContext is empty when the exchange is not tied to a document.
type Prompt struct {
	Question        string
	DocumentContext string
}

// InferenceGateway produces an assistant reply for a prompt and a catalog model id.
type InferenceGateway interface {
	Complete(ctx context.Context, modelID string, prompt Prompt) (string, error)
}
