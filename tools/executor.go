// Tool Executor with Retry Logic.
//
// Information Hiding:
// - Retry strategy implementation hidden
// - Backoff algorithm hidden
// - Error classification logic hidden

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Executor provides tool execution with validation, retry and timeout support.
type Executor struct {
	config ToolConfig
}

// NewExecutor creates a new tool executor with the given configuration.
func NewExecutor(config ToolConfig) *Executor {
	return &Executor{config: config}
}

// Execute validates args, then runs the tool, retrying transient failures.
// Each attempt gets its own timeout. A non-nil error is returned only when
// ctx is done; tool failures come back as a failed ToolResult.
func (e *Executor) Execute(ctx context.Context, tool Tool, args json.RawMessage) (ToolResult, error) {
	toolName := tool.Metadata().Name
	if err := tool.Validate(args); err != nil {
		return FailureResult(fmt.Errorf("validation failed for '%s': %w", toolName, err)), nil
	}

	var lastErr error
	maxRetries := e.config.Retries()
	timeout := time.Duration(e.config.Timeout()) * time.Second

	for attempt := uint32(0); attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ToolResult{}, ctx.Err()
			case <-time.After(e.calculateBackoff(attempt)):
			}
		}

		result, err := e.attempt(ctx, tool, args, timeout)
		if ctx.Err() != nil {
			return ToolResult{}, ctx.Err()
		}
		if err != nil {
			lastErr = err
			continue
		}
		if result.Success() {
			return result, nil
		}
		if !e.shouldRetry(result.Error) {
			return result, nil
		}
		lastErr = result.Error
	}

	errMsg := "unknown error"
	if lastErr != nil {
		errMsg = lastErr.Error()
	}
	return ToolResult{
		Error: &retriesExhaustedError{tool: toolName, attempts: maxRetries, msg: errMsg, cause: lastErr},
	}, nil
}

func (e *Executor) attempt(ctx context.Context, tool Tool, args json.RawMessage, timeout time.Duration) (ToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return tool.Execute(ctx, args)
}

// calculateBackoff returns the backoff duration for the given attempt.
func (e *Executor) calculateBackoff(attempt uint32) time.Duration {
	const (
		baseDelay = 100 * time.Millisecond
		maxDelay  = 5 * time.Second
	)

	delay := baseDelay * time.Duration(1<<attempt)
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// shouldRetry determines if an error is retryable.
func (e *Executor) shouldRetry(err error) bool {
	if err == nil {
		return false
	}

	var serr *SearchError
	if errors.As(err, &serr) {
		return serr.Retryable()
	}

	errLower := strings.ToLower(err.Error())
	for _, s := range []string{"validation", "not allowed", "permission", "empty"} {
		if strings.Contains(errLower, s) {
			return false
		}
	}
	return true
}

type retriesExhaustedError struct {
	tool     string
	attempts uint32
	msg      string
	cause    error
}

func (e *retriesExhaustedError) Error() string {
	return fmt.Sprintf("tool '%s' failed after %d attempts: %s", e.tool, e.attempts, e.msg)
}

func (e *retriesExhaustedError) Unwrap() error {
	return e.cause
}
