// Completion gateway - renders a prompt pair and returns the model's text.

package llm

import (
	"context"
	"fmt"
	"strings"
	"text/template"
)

// Completer turns a system prompt and a human prompt template into text.
// Failures from the backend are reported as *ProviderError.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, humanTemplate string, vars map[string]string) (string, error)
}

// Client wraps a Provider with the Completer interface.
type Client struct {
	provider Provider
}

// NewClient creates a new LLM client from a provider.
func NewClient(provider Provider) *Client {
	return &Client{provider: provider}
}

// Complete renders humanTemplate with vars, sends it after systemPrompt, and
// returns the trimmed completion. Template errors are returned as-is; backend
// failures and empty completions are *ProviderError.
func (c *Client) Complete(ctx context.Context, systemPrompt, humanTemplate string, vars map[string]string) (string, error) {
	human, err := RenderTemplate(humanTemplate, vars)
	if err != nil {
		return "", err
	}

	messages := make([]ChatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, SystemMessage(systemPrompt))
	}
	messages = append(messages, UserMessage(human))

	response, err := c.provider.Chat(ctx, messages)
	if err != nil {
		return "", wrapProviderError(c.provider, "completion failed", err)
	}

	content := strings.TrimSpace(response.Content)
	if content == "" {
		return "", wrapProviderError(c.provider, "empty completion", nil)
	}
	return content, nil
}

// RenderTemplate executes a text/template against vars. Referencing a
// variable that is not in vars is an error.
func RenderTemplate(humanTemplate string, vars map[string]string) (string, error) {
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(humanTemplate)
	if err != nil {
		return "", fmt.Errorf("parse prompt template: %w", err)
	}

	if vars == nil {
		vars = map[string]string{}
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, vars); err != nil {
		return "", fmt.Errorf("render prompt template: %w", err)
	}
	return sb.String(), nil
}

// Verify Client implements Completer
var _ Completer = (*Client)(nil)
