// Package inference provides LLM access for agentlab: a provider-backed
// client, a retrying query entrypoint, token accounting, and cost estimation.
package inference

import "context"

// Request describes a single completion request.
type Request struct {
	// Model is the provider model identifier. Empty uses the client default.
	Model string
	// SystemPrompt is prepended as the system message.
	SystemPrompt string
	// Prompt is the user message.
	Prompt string
	// Temperature controls sampling randomness (0 disables the field).
	Temperature float64
	// MaxTokens bounds the response length. Zero uses the client default.
	MaxTokens int64
	// JSONFormat asks the model to answer with a single JSON object.
	JSONFormat bool
}

// Response is the completed model output plus reported usage.
type Response struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Backend is the seam between agent code and a model provider. Production
// code uses the Anthropic-backed Client; tests substitute scripted stubs.
type Backend interface {
	Complete(ctx context.Context, req Request) (Response, error)
}
