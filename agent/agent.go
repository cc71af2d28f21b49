// Bounded tool-calling loop.
//
// The model is offered the registered tools through the provider's native
// function calling. Each turn either answers (no tool calls) or requests
// tools, whose results are appended to the conversation. When the turn bound
// is hit the host closes the session with one tools-free turn.
//
// Information Hiding:
// - Conversation bookkeeping hidden
// - Tool lookup, validation and retries hidden
// - Usage and reference accounting hidden

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/richinex/scrivener/llm"
	"github.com/richinex/scrivener/tools"
)

// Agent executes one task through a bounded tool-calling session.
type Agent struct {
	config       Config
	provider     llm.Provider
	toolRegistry *tools.Registry
	toolExecutor *tools.Executor
	logger       *slog.Logger
}

// New creates an agent. Duplicate tool names are an error.
func New(config Config, provider llm.Provider) (*Agent, error) {
	registry := tools.NewRegistry()
	for _, tool := range config.Tools {
		if err := registry.Register(tool); err != nil {
			return nil, fmt.Errorf("agent %s: %w", config.Name, err)
		}
	}
	if config.FinalPrompt == "" {
		config.FinalPrompt = DefaultFinalPrompt
	}

	return &Agent{
		config:       config,
		provider:     provider,
		toolRegistry: registry,
		toolExecutor: tools.NewExecutor(config.ToolConfig),
		logger:       slog.Default(),
	}, nil
}

// WithLogger sets the logger. A nil logger keeps the default.
func (a *Agent) WithLogger(logger *slog.Logger) *Agent {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// Name returns the agent's name.
func (a *Agent) Name() string {
	return a.config.Name
}

// session is the mutable state of one Execute call.
type session struct {
	start        time.Time
	conversation []llm.ChatMessage
	steps        []Step
	toolCalls    []ToolCall
	references   []string
	seen         map[string]bool
	usage        llm.TokenUsage
	llmCalls     int
}

func (s *session) record(resp llm.LLMResponse) {
	s.llmCalls++
	s.usage.Add(resp.Usage)
}

func (s *session) addReferences(refs []string) {
	for _, ref := range refs {
		if !s.seen[ref] {
			s.seen[ref] = true
			s.references = append(s.references, ref)
		}
	}
}

// Execute runs task for at most maxTurns tool-calling turns, plus one forced
// closing turn if the bound is hit. A non-positive maxTurns means
// DefaultMaxTurns.
func (a *Agent) Execute(ctx context.Context, task string, maxTurns int) Response {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	s := &session{
		start: time.Now(),
		seen:  make(map[string]bool),
		conversation: []llm.ChatMessage{
			llm.SystemMessage(a.config.SystemPrompt),
			llm.UserMessage(task),
		},
	}
	definitions := a.toolDefinitions()

	for turn := 0; turn < maxTurns; turn++ {
		if ctx.Err() != nil {
			return a.failure(s, fmt.Sprintf("execution cancelled: %v", ctx.Err()))
		}

		resp, err := a.provider.ChatWithTools(ctx, s.conversation, definitions)
		if err != nil {
			return a.failure(s, fmt.Sprintf("llm call failed: %v", err))
		}
		s.record(resp)

		if len(resp.ToolCalls) == 0 {
			return a.answer(s, turn, resp.Content, false)
		}

		a.logger.Debug("agent turn", "agent", a.config.Name, "turn", turn, "tool_calls", len(resp.ToolCalls))
		s.conversation = append(s.conversation, llm.AssistantToolCallMessage(resp.Content, resp.ToolCalls))

		for _, call := range resp.ToolCalls {
			observation, err := a.executeTool(ctx, s, call)
			if err != nil {
				if a.config.FailOnToolError || ctx.Err() != nil {
					return a.failure(s, err.Error())
				}
				observation = fmt.Sprintf("Tool failed: %v", err)
			}

			s.conversation = append(s.conversation, llm.ToolResultMessage(call.ID, observation))

			action := call.Name
			s.steps = append(s.steps, Step{
				Iteration:   turn,
				Thought:     resp.Content,
				Action:      &action,
				Observation: &observation,
			})
		}
	}

	return a.forceFinal(ctx, s, task, maxTurns)
}

// forceFinal asks for an answer without offering tools. The transcript is
// flattened to plain text so providers that reject tool blocks without tool
// definitions accept the request.
func (a *Agent) forceFinal(ctx context.Context, s *session, task string, maxTurns int) Response {
	a.logger.Debug("turn bound reached, forcing final answer", "agent", a.config.Name, "max_turns", maxTurns)

	if ctx.Err() != nil {
		return a.failure(s, fmt.Sprintf("execution cancelled: %v", ctx.Err()))
	}

	messages := []llm.ChatMessage{
		llm.SystemMessage(a.config.SystemPrompt),
		llm.UserMessage(flattenTranscript(task, s.steps) + "\n\n" + a.config.FinalPrompt),
	}

	resp, err := a.provider.Chat(ctx, messages)
	if err != nil {
		return a.failure(s, fmt.Sprintf("llm call failed: %v", err))
	}
	s.record(resp)

	return a.answer(s, maxTurns, resp.Content, true)
}

func (a *Agent) answer(s *session, turn int, content string, forced bool) Response {
	result := strings.TrimSpace(content)
	if result == "" {
		return a.failure(s, "empty final answer")
	}

	s.steps = append(s.steps, Step{Iteration: turn, Observation: &result})

	usage := s.usage
	return Response{
		Type:       ResponseSuccess,
		Result:     result,
		Steps:      s.steps,
		References: s.references,
		Metadata: Metadata{
			ExecutionTimeMs: uint64(time.Since(s.start).Milliseconds()),
			AgentName:       a.config.Name,
			ToolCalls:       s.toolCalls,
			TokenUsage:      &usage,
			LLMCalls:        s.llmCalls,
			ForcedFinal:     forced,
		},
	}
}

func (a *Agent) failure(s *session, msg string) Response {
	a.logger.Debug("agent failed", "agent", a.config.Name, "error", msg)

	usage := s.usage
	return Response{
		Type:       ResponseFailure,
		Error:      msg,
		Steps:      s.steps,
		References: s.references,
		Metadata: Metadata{
			ExecutionTimeMs: uint64(time.Since(s.start).Milliseconds()),
			AgentName:       a.config.Name,
			ToolCalls:       s.toolCalls,
			TokenUsage:      &usage,
			LLMCalls:        s.llmCalls,
		},
	}
}

// executeTool runs one requested call and returns the observation text.
func (a *Agent) executeTool(ctx context.Context, s *session, call llm.ToolCall) (string, error) {
	tool, exists := a.toolRegistry.Get(call.Name)
	if !exists {
		return "", fmt.Errorf("tool '%s' not found", call.Name)
	}

	startTime := time.Now()
	result, err := a.toolExecutor.Execute(ctx, tool, call.Arguments)
	if err != nil {
		return "", fmt.Errorf("tool %q failed: %w", call.Name, err)
	}

	s.toolCalls = append(s.toolCalls, ToolCall{
		Name:       call.Name,
		InputSize:  len(call.Arguments),
		OutputSize: len(result.Output),
		DurationMs: uint64(time.Since(startTime).Milliseconds()),
		Success:    result.Success(),
	})

	if !result.Success() {
		return "", result.Error
	}
	s.addReferences(result.References)
	return result.Output, nil
}

func (a *Agent) toolDefinitions() []llm.ToolDefinition {
	metadata := a.toolRegistry.List()
	defs := make([]llm.ToolDefinition, 0, len(metadata))
	for _, meta := range metadata {
		defs = append(defs, llm.ToolDefinition{
			Name:        meta.Name,
			Description: meta.Description,
			Parameters:  meta.JSONSchema(),
		})
	}
	return defs
}

// flattenTranscript renders the task and tool observations as plain text.
func flattenTranscript(task string, steps []Step) string {
	var sb strings.Builder
	sb.WriteString(task)
	if len(steps) == 0 {
		return sb.String()
	}

	sb.WriteString("\n\nInformation gathered so far:")
	for _, step := range steps {
		if step.Action == nil || step.Observation == nil {
			continue
		}
		fmt.Fprintf(&sb, "\n\n[%s]\n%s", *step.Action, *step.Observation)
	}
	return sb.String()
}
