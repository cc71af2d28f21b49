// Package llm is the text-completion gateway.
//
// Provider is the closed capability every backend implements. Each
// implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Tool-call encoding for the provider's native function calling

package llm

import (
	"context"
)

// Provider defines the interface for LLM backends.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Model returns the current model being used.
	Model() string

	// Chat sends a chat completion request.
	Chat(ctx context.Context, messages []ChatMessage) (LLMResponse, error)

	// ChatWithTools sends a chat completion request with tool definitions.
	// The LLM may respond with tool calls in LLMResponse.ToolCalls.
	ChatWithTools(ctx context.Context, messages []ChatMessage, tools []ToolDefinition) (LLMResponse, error)
}
