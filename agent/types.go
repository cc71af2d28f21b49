// Package agent runs bounded tool-calling sessions against an llm.Provider.
//
// Contains the response and execution-record types.
package agent

import (
	"github.com/richinex/scrivener/llm"
)

// Step records one turn of a session. Tool turns produce one Step per call
// with Action and Observation set; the answer is a Step with only
// Observation.
type Step struct {
	Iteration   int
	Thought     string
	Action      *string
	Observation *string
}

// ToolCall records one executed tool call.
type ToolCall struct {
	Name       string `json:"name"`
	InputSize  int    `json:"input_size"`
	OutputSize int    `json:"output_size"`
	DurationMs uint64 `json:"duration_ms"`
	Success    bool   `json:"success"`
}

// Metadata contains metadata about agent execution.
type Metadata struct {
	ExecutionTimeMs uint64
	AgentName       string
	ToolCalls       []ToolCall
	TokenUsage      *llm.TokenUsage
	LLMCalls        int
	// ForcedFinal is set when the turn bound was hit and the answer came
	// from the tools-free closing turn.
	ForcedFinal bool
}

// ResponseType indicates the type of agent response.
type ResponseType int

const (
	ResponseSuccess ResponseType = iota
	ResponseFailure
)

// Response represents a response from an agent execution.
type Response struct {
	Type   ResponseType
	Result string // For Success
	Error  string // For Failure
	Steps  []Step
	// References are the URLs reported by successful tool calls, deduplicated
	// in first-seen order.
	References []string
	Metadata   Metadata
}

// IsSuccess checks if the response was successful.
func (r Response) IsSuccess() bool {
	return r.Type == ResponseSuccess
}
