// Google Custom Search backend.
//
// Information Hiding:
// - customsearch service construction and API key handling
// - googleapi error mapping to *SearchError

package tools

import (
	"context"
	"errors"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// googleMaxNum is the largest page size the API accepts.
const googleMaxNum = 10

// GoogleSearcher queries a Google Programmable Search Engine.
type GoogleSearcher struct {
	svc *customsearch.Service
	cx  string
}

// NewGoogleSearcher creates a searcher for the engine cx. Extra client
// options are appended after the API key.
func NewGoogleSearcher(ctx context.Context, apiKey, cx string, opts ...option.ClientOption) (*GoogleSearcher, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, &SearchError{Provider: "google", Message: "failed to create customsearch service", Err: err}
	}
	return &GoogleSearcher{svc: svc, cx: cx}, nil
}

// Name returns the backend name.
func (g *GoogleSearcher) Name() string {
	return "google"
}

// Search runs one Custom Search query.
func (g *GoogleSearcher) Search(ctx context.Context, query string, maxResults int) ([]Snippet, error) {
	if maxResults <= 0 || maxResults > googleMaxNum {
		maxResults = googleMaxNum
	}

	resp, err := g.svc.Cse.List().Cx(g.cx).Q(query).Num(int64(maxResults)).Context(ctx).Do()
	if err != nil {
		serr := &SearchError{Provider: g.Name(), Query: query, Message: "custom search failed", Err: err}
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			serr.StatusCode = apiErr.Code
		}
		return nil, serr
	}

	snippets := make([]Snippet, 0, len(resp.Items))
	for _, item := range resp.Items {
		snippets = append(snippets, Snippet{Title: item.Title, URL: item.Link, Content: item.Snippet})
	}
	return snippets, nil
}
