package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

func newChatServer(t *testing.T, status int, body string, seen *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(apiKey, url string) openai.ClientConfig {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = url + "/v1"
	return config
}

const toolCallResponse = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "choices": [{
    "index": 0,
    "message": {
      "role": "assistant",
      "content": "",
      "tool_calls": [{
        "id": "call_1",
        "type": "function",
        "function": {"name": "web_search", "arguments": "{\"query\":\"Acme Robotics\"}"}
      }]
    },
    "finish_reason": "tool_calls"
  }],
  "usage": {"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16}
}`

func TestOpenAIChatWithToolsParsesCalls(t *testing.T) {
	var seen openai.ChatCompletionRequest
	srv := newChatServer(t, http.StatusOK, toolCallResponse, &seen)
	provider := newOpenAIProviderWithConfig(testConfig("sk-test", srv.URL), "gpt-4o-mini", 256, 0.2)

	resp, err := provider.ChatWithTools(context.Background(), []ChatMessage{
		SystemMessage("research"),
		UserMessage("Acme"),
	}, []ToolDefinition{{
		Name:        "web_search",
		Description: "search the web",
		Parameters:  map[string]interface{}{"type": "object"},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(resp.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(resp.ToolCalls))
	}
	call := resp.ToolCalls[0]
	if call.ID != "call_1" || call.Name != "web_search" {
		t.Errorf("unexpected tool call: %+v", call)
	}
	if string(call.Arguments) != `{"query":"Acme Robotics"}` {
		t.Errorf("unexpected arguments: %s", call.Arguments)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 16 {
		t.Errorf("expected usage total 16, got %+v", resp.Usage)
	}

	if seen.Model != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %q", seen.Model)
	}
	if len(seen.Tools) != 1 || seen.Tools[0].Function.Name != "web_search" {
		t.Errorf("tool definitions not sent: %+v", seen.Tools)
	}
}

func TestOpenAIToolResultRoundTrip(t *testing.T) {
	var seen openai.ChatCompletionRequest
	srv := newChatServer(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"done"}}]}`, &seen)
	provider := newDeepSeekProviderWithConfig(testConfig("sk-test", srv.URL), "deepseek-chat", 256, 0.2)

	calls := []ToolCall{{ID: "call_1", Name: "web_search", Arguments: json.RawMessage(`{"query":"x"}`)}}
	resp, err := provider.ChatWithTools(context.Background(), []ChatMessage{
		UserMessage("go"),
		AssistantToolCallMessage("", calls),
		ToolResultMessage("call_1", "1. Acme - robots"),
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "done" {
		t.Errorf("expected content 'done', got %q", resp.Content)
	}

	if len(seen.Messages) != 3 {
		t.Fatalf("expected 3 messages sent, got %d", len(seen.Messages))
	}
	if got := seen.Messages[1].ToolCalls; len(got) != 1 || got[0].Function.Arguments != `{"query":"x"}` {
		t.Errorf("assistant tool call not forwarded: %+v", got)
	}
	if seen.Messages[2].ToolCallID != "call_1" {
		t.Errorf("tool result lost its call id: %+v", seen.Messages[2])
	}
}

// TestOpenAIErrorNoAPIKeyLeak verifies provider errors don't contain API keys
func TestOpenAIErrorNoAPIKeyLeak(t *testing.T) {
	testKey := "sk-test-invalid-key-12345xyz"
	srv := newChatServer(t, http.StatusUnauthorized,
		`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`, nil)
	provider := newOpenAIProviderWithConfig(testConfig(testKey, srv.URL), "gpt-4o-mini", 100, 0.7)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := provider.Chat(ctx, []ChatMessage{UserMessage("test")})
	if err == nil {
		t.Fatal("expected error for rejected key")
	}

	errStr := err.Error()
	if strings.Contains(errStr, testKey) {
		t.Errorf("OpenAI error message leaked API key: %v", errStr)
	}
	if strings.Contains(errStr, "Authorization:") {
		t.Errorf("OpenAI error exposed Authorization header: %v", errStr)
	}
}

// TestGeminiInitErrorNoAPIKeyLeak verifies deferred init errors don't contain API keys
func TestGeminiInitErrorNoAPIKeyLeak(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	provider := NewGeminiProvider("", "gemini-2.5-flash", 100, 0.7)
	if provider.initErr == nil {
		t.Skip("client initialized without a key - skipping")
	}

	_, err := provider.Chat(context.Background(), []ChatMessage{UserMessage("test")})
	if err == nil {
		t.Fatal("expected init error to surface on first use")
	}
}

func TestConvertToGeminiSchemaArrays(t *testing.T) {
	schema := convertToGeminiSchema(map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query":   map[string]interface{}{"type": "string", "description": "search terms"},
			"domains": map[string]interface{}{"type": "array"},
		},
		"required": []string{"query"},
	})

	if len(schema.Required) != 1 || schema.Required[0] != "query" {
		t.Errorf("unexpected required: %v", schema.Required)
	}
	if schema.Properties["query"].Description != "search terms" {
		t.Errorf("description lost: %+v", schema.Properties["query"])
	}
	if schema.Properties["domains"].Items == nil {
		t.Error("array property must carry an items schema")
	}
}

func TestParseProviderType(t *testing.T) {
	tests := []struct {
		input    string
		expected ProviderType
	}{
		{"openai", ProviderOpenAI},
		{"GPT", ProviderOpenAI},
		{"gemini", ProviderGemini},
		{"google_gemini", ProviderGemini},
		{"google", ProviderGemini},
		{"deepseek", ProviderDeepSeek},
		{"claude", ProviderAnthropic},
	}

	for _, tt := range tests {
		got, err := ParseProviderType(tt.input)
		if err != nil {
			t.Errorf("ParseProviderType(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseProviderType(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}

	if _, err := ParseProviderType("mistral"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestLookupAPIKeyGeminiFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "google-key")

	key, err := ProviderGemini.LookupAPIKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "google-key" {
		t.Errorf("expected fallback key, got %q", key)
	}
}

func TestBuilderDefaults(t *testing.T) {
	for _, pt := range AllProviders {
		provider, err := NewProviderBuilder(pt).APIKey("key")
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", pt, err)
		}
		if provider.Name() != pt.String() {
			t.Errorf("expected name %q, got %q", pt.String(), provider.Name())
		}
		if provider.Model() != pt.DefaultModel() {
			t.Errorf("%s: expected default model %q, got %q", pt, pt.DefaultModel(), provider.Model())
		}
	}
}
