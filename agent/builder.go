// Agent builder for fluent configuration.

package agent

import (
	"fmt"

	"github.com/richinex/scrivener/tools"
)

// Builder provides fluent configuration for creating agents.
type Builder struct {
	name            string
	systemPrompt    string
	finalPrompt     string
	tools           []tools.Tool
	toolConfig      tools.ToolConfig
	failOnToolError bool
}

// NewBuilder creates a new agent builder with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:       name,
		toolConfig: tools.DefaultToolConfig(),
	}
}

// SystemPrompt sets the agent's system prompt.
func (b *Builder) SystemPrompt(prompt string) *Builder {
	b.systemPrompt = prompt
	return b
}

// FinalPrompt sets the instruction for the forced closing turn.
func (b *Builder) FinalPrompt(prompt string) *Builder {
	b.finalPrompt = prompt
	return b
}

// Tool adds a tool to the agent.
func (b *Builder) Tool(tool tools.Tool) *Builder {
	b.tools = append(b.tools, tool)
	return b
}

// Tools adds multiple tools at once.
func (b *Builder) Tools(toolList []tools.Tool) *Builder {
	b.tools = append(b.tools, toolList...)
	return b
}

// ToolConfig sets per-call timeout and retries.
func (b *Builder) ToolConfig(config tools.ToolConfig) *Builder {
	b.toolConfig = config
	return b
}

// FailOnToolError makes a failed tool call end the session.
func (b *Builder) FailOnToolError(enabled bool) *Builder {
	b.failOnToolError = enabled
	return b
}

// Build creates the agent configuration.
func (b *Builder) Build() Config {
	systemPrompt := b.systemPrompt
	if systemPrompt == "" {
		systemPrompt = fmt.Sprintf(
			"You are an agent named %s. Use available tools to complete tasks.",
			b.name,
		)
	}

	finalPrompt := b.finalPrompt
	if finalPrompt == "" {
		finalPrompt = DefaultFinalPrompt
	}

	return Config{
		Name:            b.name,
		SystemPrompt:    systemPrompt,
		FinalPrompt:     finalPrompt,
		Tools:           b.tools,
		ToolConfig:      b.toolConfig,
		FailOnToolError: b.failOnToolError,
	}
}
