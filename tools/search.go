// Web search tools.
//
// Information Hiding:
// - Backend wire formats hidden behind Searcher
// - Result formatting for the model hidden in WebSearchTool

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Snippet is one search hit.
type Snippet struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Searcher runs a web search. Failures are reported as *SearchError.
type Searcher interface {
	// Name identifies the backend in errors and logs.
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]Snippet, error)
}

// SearchError describes a failed search call.
type SearchError struct {
	Provider   string
	Query      string
	Message    string
	StatusCode int // zero when no HTTP response was received
	Err        error
}

func (e *SearchError) Error() string {
	msg := fmt.Sprintf("%s search %q: %s", e.Provider, e.Query, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the call might succeed: transport
// failures, rate limiting and server errors.
func (e *SearchError) Retryable() bool {
	switch {
	case e.StatusCode == 0:
		var netErr net.Error
		return errors.As(e.Err, &netErr)
	case e.StatusCode == 429:
		return true
	default:
		return e.StatusCode >= 500
	}
}

// Tool names exposed to the model.
const (
	WebSearchName    = "web_search"
	TavilySearchName = "tavily_search"
	GoogleSearchName = "google_search"
)

// Default result counts per backend.
const (
	DefaultWebResults    = 5
	DefaultTavilyResults = 3
	DefaultGoogleResults = 3
)

// maxSnippetRunes caps the text kept from each hit.
const maxSnippetRunes = 800

// WebSearchTool adapts a Searcher to the Tool interface.
type WebSearchTool struct {
	name        string
	description string
	searcher    Searcher
	maxResults  int
}

// NewWebSearchTool creates a search tool backed by searcher.
func NewWebSearchTool(name, description string, searcher Searcher, maxResults int) *WebSearchTool {
	if maxResults <= 0 {
		maxResults = DefaultWebResults
	}
	return &WebSearchTool{
		name:        name,
		description: description,
		searcher:    searcher,
		maxResults:  maxResults,
	}
}

// Metadata returns the tool metadata.
func (t *WebSearchTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        t.name,
		Description: t.description,
		Parameters: []ToolParameter{
			{Name: "query", ParamType: "string", Description: "The search query", Required: true},
		},
	}
}

type searchArgs struct {
	Query string `json:"query"`
}

func parseSearchArgs(args json.RawMessage) (searchArgs, error) {
	var a searchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return a, fmt.Errorf("invalid arguments: %w", err)
	}
	a.Query = strings.TrimSpace(a.Query)
	if a.Query == "" {
		return a, fmt.Errorf("query cannot be empty")
	}
	return a, nil
}

// Validate validates the arguments.
func (t *WebSearchTool) Validate(args json.RawMessage) error {
	_, err := parseSearchArgs(args)
	return err
}

// Execute runs the search and formats the hits as a numbered list.
func (t *WebSearchTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	a, err := parseSearchArgs(args)
	if err != nil {
		return FailureResult(err), nil
	}

	snippets, err := t.searcher.Search(ctx, a.Query, t.maxResults)
	if err != nil {
		return FailureResult(err), nil
	}
	if len(snippets) == 0 {
		return SuccessResult(fmt.Sprintf("No results found for %q.", a.Query)), nil
	}
	if len(snippets) > t.maxResults {
		snippets = snippets[:t.maxResults]
	}

	urls := make([]string, 0, len(snippets))
	for _, s := range snippets {
		if s.URL != "" {
			urls = append(urls, s.URL)
		}
	}
	return SuccessResult(FormatSnippets(snippets), urls...), nil
}

// FormatSnippets renders hits for the model.
func FormatSnippets(snippets []Snippet) string {
	var sb strings.Builder
	for i, s := range snippets {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "%d. %s\n   URL: %s\n   %s", i+1, s.Title, s.URL, truncateRunes(s.Content, maxSnippetRunes))
	}
	return sb.String()
}

func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

var _ Tool = (*WebSearchTool)(nil)
