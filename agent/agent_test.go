package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/richinex/scrivener/llm"
	"github.com/richinex/scrivener/tools"
)

// scriptedProvider replays canned responses: tool-calling turns from
// withTools, the forced closing turn from final.
type scriptedProvider struct {
	withTools []llm.LLMResponse
	final     llm.LLMResponse
	err       error

	toolTurns  int
	chatCalls  int
	lastChat   []llm.ChatMessage
	lastTools  []llm.ToolDefinition
	lastWithTC []llm.ChatMessage
}

func (p *scriptedProvider) Name() string  { return "scripted" }
func (p *scriptedProvider) Model() string { return "scripted-1" }

func (p *scriptedProvider) Chat(_ context.Context, messages []llm.ChatMessage) (llm.LLMResponse, error) {
	p.chatCalls++
	p.lastChat = messages
	if p.err != nil {
		return llm.LLMResponse{}, p.err
	}
	return p.final, nil
}

func (p *scriptedProvider) ChatWithTools(_ context.Context, messages []llm.ChatMessage, defs []llm.ToolDefinition) (llm.LLMResponse, error) {
	p.lastTools = defs
	p.lastWithTC = messages
	if p.err != nil {
		return llm.LLMResponse{}, p.err
	}
	if p.toolTurns >= len(p.withTools) {
		return llm.LLMResponse{}, errors.New("script exhausted")
	}
	resp := p.withTools[p.toolTurns]
	p.toolTurns++
	return resp, nil
}

type fixedSearcher struct {
	snippets []tools.Snippet
	err      error
}

func (f *fixedSearcher) Name() string { return "fixed" }

func (f *fixedSearcher) Search(context.Context, string, int) ([]tools.Snippet, error) {
	return f.snippets, f.err
}

func searchCall(id string) llm.LLMResponse {
	return llm.LLMResponse{ToolCalls: []llm.ToolCall{{
		ID:        id,
		Name:      tools.WebSearchName,
		Arguments: json.RawMessage(`{"query":"Acme Robotics"}`),
	}}}
}

func newTestAgent(t *testing.T, provider llm.Provider, searcher tools.Searcher, failOnToolError bool) *Agent {
	t.Helper()
	config := NewBuilder("research").
		SystemPrompt("research companies").
		Tool(tools.NewWebSearchTool(tools.WebSearchName, "search", searcher, 5)).
		ToolConfig(tools.ToolConfig{MaxRetries: 1, TimeoutSecs: 5}).
		FailOnToolError(failOnToolError).
		Build()
	a, err := New(config, provider)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return a
}

func TestExecuteToolThenAnswer(t *testing.T) {
	provider := &scriptedProvider{withTools: []llm.LLMResponse{
		searchCall("call_1"),
		{Content: "  Acme builds robots.  ", Usage: &llm.TokenUsage{TotalTokens: 10}},
	}}
	searcher := &fixedSearcher{snippets: []tools.Snippet{
		{Title: "Acme", URL: "https://acme.example.com", Content: "Robots"},
		{Title: "Acme again", URL: "https://acme.example.com", Content: "Dup"},
	}}

	resp := newTestAgent(t, provider, searcher, false).Execute(context.Background(), "Research Acme", 6)

	if !resp.IsSuccess() {
		t.Fatalf("expected success, got %q", resp.Error)
	}
	if resp.Result != "Acme builds robots." {
		t.Errorf("unexpected result %q", resp.Result)
	}
	if len(resp.References) != 1 || resp.References[0] != "https://acme.example.com" {
		t.Errorf("expected deduplicated references, got %v", resp.References)
	}
	if resp.Metadata.LLMCalls != 2 || resp.Metadata.ForcedFinal {
		t.Errorf("unexpected metadata: %+v", resp.Metadata)
	}
	if len(resp.Metadata.ToolCalls) != 1 || !resp.Metadata.ToolCalls[0].Success {
		t.Errorf("unexpected tool call records: %+v", resp.Metadata.ToolCalls)
	}
	if len(provider.lastTools) != 1 || provider.lastTools[0].Name != tools.WebSearchName {
		t.Errorf("tool definitions not offered: %+v", provider.lastTools)
	}

	// system, user, assistant tool call, tool result
	if len(provider.lastWithTC) != 4 {
		t.Fatalf("expected 4 messages on second turn, got %d", len(provider.lastWithTC))
	}
	toolMsg := provider.lastWithTC[3]
	if toolMsg.Role != llm.RoleTool || toolMsg.ToolCallID != "call_1" {
		t.Errorf("unexpected tool result message: %+v", toolMsg)
	}
}

func TestExecuteForcesFinalTurnAtBound(t *testing.T) {
	provider := &scriptedProvider{
		withTools: []llm.LLMResponse{searchCall("a"), searchCall("b")},
		final:     llm.LLMResponse{Content: "Summary after search."},
	}
	searcher := &fixedSearcher{snippets: []tools.Snippet{{Title: "Acme", URL: "https://acme.example.com", Content: "Robots"}}}

	resp := newTestAgent(t, provider, searcher, false).Execute(context.Background(), "Research Acme", 2)

	if !resp.IsSuccess() {
		t.Fatalf("expected success, got %q", resp.Error)
	}
	if !resp.Metadata.ForcedFinal {
		t.Error("expected forced final turn")
	}
	if provider.toolTurns != 2 || provider.chatCalls != 1 {
		t.Errorf("expected 2 tool turns and 1 closing turn, got %d and %d", provider.toolTurns, provider.chatCalls)
	}

	closing := provider.lastChat[len(provider.lastChat)-1].Content
	if !strings.Contains(closing, "[web_search]") || !strings.Contains(closing, DefaultFinalPrompt) {
		t.Errorf("closing turn missing transcript or instruction: %q", closing)
	}
	for _, msg := range provider.lastChat {
		if msg.Role == llm.RoleTool || len(msg.ToolCalls) > 0 {
			t.Errorf("closing turn must be tools-free, got %+v", msg)
		}
	}
}

func TestExecuteToolFailureFedBack(t *testing.T) {
	provider := &scriptedProvider{withTools: []llm.LLMResponse{
		searchCall("call_1"),
		{Content: "Could not find much."},
	}}
	searcher := &fixedSearcher{err: &tools.SearchError{Provider: "fixed", Query: "q", Message: "HTTP error", StatusCode: 403}}

	resp := newTestAgent(t, provider, searcher, false).Execute(context.Background(), "Research Acme", 6)

	if !resp.IsSuccess() {
		t.Fatalf("expected success, got %q", resp.Error)
	}
	observation := provider.lastWithTC[3].Content
	if !strings.HasPrefix(observation, "Tool failed:") {
		t.Errorf("expected failure observation, got %q", observation)
	}
}

func TestExecuteToolFailureEndsSession(t *testing.T) {
	provider := &scriptedProvider{withTools: []llm.LLMResponse{searchCall("call_1")}}
	searcher := &fixedSearcher{err: &tools.SearchError{Provider: "fixed", Query: "q", Message: "HTTP error", StatusCode: 403}}

	resp := newTestAgent(t, provider, searcher, true).Execute(context.Background(), "Research Acme", 6)

	if resp.IsSuccess() {
		t.Fatal("expected failure")
	}
	if !strings.Contains(resp.Error, "HTTP error") {
		t.Errorf("unexpected error %q", resp.Error)
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	provider := &scriptedProvider{withTools: []llm.LLMResponse{
		{ToolCalls: []llm.ToolCall{{ID: "x", Name: "browse", Arguments: json.RawMessage(`{}`)}}},
	}}

	resp := newTestAgent(t, provider, &fixedSearcher{}, true).Execute(context.Background(), "task", 6)

	if resp.IsSuccess() || !strings.Contains(resp.Error, "not found") {
		t.Errorf("expected unknown tool failure, got %+v", resp)
	}
}

func TestExecuteProviderError(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("quota exceeded")}

	resp := newTestAgent(t, provider, &fixedSearcher{}, false).Execute(context.Background(), "task", 6)

	if resp.IsSuccess() || !strings.Contains(resp.Error, "quota exceeded") {
		t.Errorf("expected provider failure, got %+v", resp)
	}
}

func TestExecuteEmptyAnswer(t *testing.T) {
	provider := &scriptedProvider{withTools: []llm.LLMResponse{{Content: "   "}}}

	resp := newTestAgent(t, provider, &fixedSearcher{}, false).Execute(context.Background(), "task", 6)

	if resp.IsSuccess() || resp.Error != "empty final answer" {
		t.Errorf("expected empty answer failure, got %+v", resp)
	}
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &scriptedProvider{}
	resp := newTestAgent(t, provider, &fixedSearcher{}, false).Execute(ctx, "task", 6)

	if resp.IsSuccess() || !strings.Contains(resp.Error, "cancelled") {
		t.Errorf("expected cancellation failure, got %+v", resp)
	}
	if provider.toolTurns != 0 {
		t.Error("no model call expected after cancellation")
	}
}

func TestNewRejectsDuplicateTools(t *testing.T) {
	tool := tools.NewWebSearchTool(tools.WebSearchName, "search", &fixedSearcher{}, 5)
	config := NewBuilder("dup").Tool(tool).Tool(tool).Build()

	if _, err := New(config, &scriptedProvider{}); err == nil {
		t.Error("expected duplicate tool error")
	}
}

func TestBuilderDefaults(t *testing.T) {
	config := NewBuilder("research").Build()
	if config.SystemPrompt == "" || config.FinalPrompt != DefaultFinalPrompt {
		t.Errorf("defaults not applied: %+v", config)
	}
	if config.ToolConfig.Retries() != 3 {
		t.Errorf("expected default retries, got %d", config.ToolConfig.Retries())
	}
}
