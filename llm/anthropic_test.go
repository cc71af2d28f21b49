package llm

import (
	"encoding/json"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
)

func TestConvertToAnthropicMessagesGroupsToolResults(t *testing.T) {
	messages := []ChatMessage{
		SystemMessage("research the company"),
		UserMessage("Acme Robotics"),
		AssistantToolCallMessage("", []ToolCall{
			{ID: "call_1", Name: "web_search", Arguments: json.RawMessage(`{"query":"acme"}`)},
			{ID: "call_2", Name: "web_search", Arguments: json.RawMessage(`{"query":"acme news"}`)},
		}),
		ToolResultMessage("call_1", "first"),
		ToolResultMessage("call_2", "second"),
	}

	converted, system := convertToAnthropicMessages(messages)
	if system != "research the company" {
		t.Errorf("expected system prompt to be lifted, got %q", system)
	}
	if len(converted) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(converted))
	}

	results := converted[2]
	if results.Role != anthropic.MessageParamRoleUser {
		t.Errorf("expected user role for tool results, got %q", results.Role)
	}
	if len(results.Content) != 2 {
		t.Fatalf("expected 2 tool_result blocks, got %d", len(results.Content))
	}
	for i, want := range []string{"call_1", "call_2"} {
		block := results.Content[i].OfToolResult
		if block == nil || block.ToolUseID != want {
			t.Errorf("block %d: expected tool_result for %s", i, want)
		}
	}
}

func TestConvertToAnthropicMessagesKeepsUserTextSeparate(t *testing.T) {
	messages := []ChatMessage{
		UserMessage("hello"),
		ToolResultMessage("call_1", "result"),
	}

	converted, _ := convertToAnthropicMessages(messages)
	if len(converted) != 2 {
		t.Fatalf("expected tool result in its own message, got %d messages", len(converted))
	}
}
