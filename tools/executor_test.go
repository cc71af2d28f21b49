package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"testing"
)

type flakyTool struct {
	failures int
	err      error
	calls    int
}

func (f *flakyTool) Metadata() ToolMetadata {
	return ToolMetadata{Name: "flaky", Description: "fails a few times"}
}

func (f *flakyTool) Validate(json.RawMessage) error { return nil }

func (f *flakyTool) Execute(_ context.Context, _ json.RawMessage) (ToolResult, error) {
	f.calls++
	if f.calls <= f.failures {
		return FailureResult(f.err), nil
	}
	return SuccessResult("ok"), nil
}

func transientError() error {
	return &SearchError{Provider: "stub", Query: "q", Message: "request failed", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}}
}

func TestExecutorRetriesTransientFailures(t *testing.T) {
	tool := &flakyTool{failures: 1, err: transientError()}
	result, err := NewExecutor(ToolConfig{MaxRetries: 2, TimeoutSecs: 5}).Execute(context.Background(), tool, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success() || tool.calls != 2 {
		t.Errorf("expected success on second attempt, got %+v after %d calls", result, tool.calls)
	}
}

func TestExecutorStopsOnPermanentFailure(t *testing.T) {
	tool := &flakyTool{failures: 5, err: &SearchError{Provider: "stub", Query: "q", Message: "HTTP error", StatusCode: 401}}
	result, _ := NewExecutor(ToolConfig{MaxRetries: 3}).Execute(context.Background(), tool, json.RawMessage(`{}`))
	if result.Success() {
		t.Fatal("expected failure")
	}
	if tool.calls != 1 {
		t.Errorf("expected no retries for 401, got %d calls", tool.calls)
	}
}

func TestExecutorReportsExhaustedRetries(t *testing.T) {
	tool := &flakyTool{failures: 5, err: transientError()}
	result, _ := NewExecutor(ToolConfig{MaxRetries: 2}).Execute(context.Background(), tool, json.RawMessage(`{}`))
	if result.Success() {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error.Error(), "after 2 attempts") {
		t.Errorf("unexpected error: %v", result.Error)
	}
	var serr *SearchError
	if !errors.As(result.Error, &serr) {
		t.Error("expected last SearchError to unwrap")
	}
}

func TestExecutorValidatesFirst(t *testing.T) {
	tool := NewWebSearchTool(WebSearchName, "search", &stubSearcher{}, 5)
	result, _ := NewExecutor(DefaultToolConfig()).Execute(context.Background(), tool, json.RawMessage(`{"query":""}`))
	if result.Success() || !strings.Contains(result.Error.Error(), "validation failed") {
		t.Errorf("expected validation failure, got %+v", result)
	}
}

func TestExecutorHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tool := &flakyTool{failures: 5, err: transientError()}
	_, err := NewExecutor(DefaultToolConfig()).Execute(ctx, tool, json.RawMessage(`{}`))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewWebSearchTool(WebSearchName, "ddg", &stubSearcher{}, 5)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(NewWebSearchTool(TavilySearchName, "tavily", &stubSearcher{}, 3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(NewWebSearchTool(WebSearchName, "dup", &stubSearcher{}, 5)); err == nil {
		t.Error("expected duplicate registration to fail")
	}

	listed := r.List()
	if len(listed) != 2 || listed[0].Name != TavilySearchName || listed[1].Name != WebSearchName {
		t.Errorf("unexpected tools: %v", listed)
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("expected missing tool lookup to fail")
	}
}
