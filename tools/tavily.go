// Tavily search backend.
//
// Information Hiding:
// - Endpoint, authentication and JSON request shape
// - Response decoding into Snippets

package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

const tavilyEndpoint = "https://api.tavily.com/search"

// TavilySearcher queries the Tavily search API.
type TavilySearcher struct {
	client   *http.Client
	apiKey   string
	endpoint string
}

// NewTavilySearcher creates a Tavily searcher.
func NewTavilySearcher(apiKey string, timeoutSecs uint64) *TavilySearcher {
	return &TavilySearcher{
		client:   newHTTPClient(timeoutSecs),
		apiKey:   apiKey,
		endpoint: tavilyEndpoint,
	}
}

// WithEndpoint overrides the search endpoint.
func (t *TavilySearcher) WithEndpoint(endpoint string) *TavilySearcher {
	t.endpoint = endpoint
	return t
}

// Name returns the backend name.
func (t *TavilySearcher) Name() string {
	return "tavily"
}

type tavilyRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search posts the query and decodes the hits.
func (t *TavilySearcher) Search(ctx context.Context, query string, maxResults int) ([]Snippet, error) {
	if t.apiKey == "" {
		return nil, &SearchError{Provider: t.Name(), Query: query, Message: "API key not configured"}
	}

	payload, err := json.Marshal(tavilyRequest{
		Query:       query,
		MaxResults:  maxResults,
		SearchDepth: "basic",
	})
	if err != nil {
		return nil, &SearchError{Provider: t.Name(), Query: query, Message: "failed to encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &SearchError{Provider: t.Name(), Query: query, Message: "failed to create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	body, err := doSearchRequest(ctx, t.client, req, t.Name(), query)
	if err != nil {
		return nil, err
	}

	var decoded tavilyResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &SearchError{Provider: t.Name(), Query: query, Message: "failed to decode response", Err: err}
	}

	snippets := make([]Snippet, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		snippets = append(snippets, Snippet{Title: r.Title, URL: r.URL, Content: r.Content})
	}
	return snippets, nil
}
