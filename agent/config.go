// Agent configuration types.
//
// Information Hiding:
// - Default values hidden

package agent

import (
	"github.com/richinex/scrivener/tools"
)

// DefaultMaxTurns bounds a session when the caller passes no bound.
const DefaultMaxTurns = 6

// DefaultFinalPrompt closes a session that ran out of turns.
const DefaultFinalPrompt = "You have no tool calls left. Using only the information gathered above, give your final answer now."

// Config holds agent configuration.
type Config struct {
	// Name identifies the agent in logs and metadata.
	Name string

	// SystemPrompt guides the agent's behavior.
	SystemPrompt string

	// FinalPrompt is appended for the forced tools-free closing turn.
	FinalPrompt string

	// Tools available to this agent.
	Tools []tools.Tool

	// ToolConfig controls per-call timeout and retries.
	ToolConfig tools.ToolConfig

	// FailOnToolError ends the session with a failure when a tool call
	// fails after retries. Otherwise the failure is shown to the model.
	FailOnToolError bool
}
