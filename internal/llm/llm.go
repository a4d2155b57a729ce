// Package llm provides the client interface for the language model
// collaborators (query classification, model-backed reranking).
package llm

import (
	"context"
)

// GenerateOptions configures a generation request.
type GenerateOptions struct {
	// Model overrides the client's default model.
	Model string

	// SystemPrompt sets system-level instructions.
	SystemPrompt string

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float32

	// MaxTokens limits the response length; 0 means no limit.
	MaxTokens int
}

// LLM is the interface for language model clients.
type LLM interface {
	// Generate sends a prompt and blocks until the full response is received
	// or an error occurs.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}
