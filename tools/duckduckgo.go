// DuckDuckGo HTML search backend.
//
// Information Hiding:
// - Endpoint and query encoding
// - Result page scraping via goquery
// - Redirect-link unwrapping (uddg parameter)

package tools

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const duckDuckGoEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGoSearcher searches the DuckDuckGo HTML endpoint. It needs no key.
type DuckDuckGoSearcher struct {
	client   *http.Client
	endpoint string
}

// NewDuckDuckGoSearcher creates a searcher with the given request timeout.
func NewDuckDuckGoSearcher(timeoutSecs uint64) *DuckDuckGoSearcher {
	return &DuckDuckGoSearcher{
		client:   newHTTPClient(timeoutSecs),
		endpoint: duckDuckGoEndpoint,
	}
}

// WithEndpoint overrides the search endpoint.
func (d *DuckDuckGoSearcher) WithEndpoint(endpoint string) *DuckDuckGoSearcher {
	d.endpoint = endpoint
	return d
}

// Name returns the backend name.
func (d *DuckDuckGoSearcher) Name() string {
	return "duckduckgo"
}

// Search fetches the result page and returns up to maxResults organic hits.
func (d *DuckDuckGoSearcher) Search(ctx context.Context, query string, maxResults int) ([]Snippet, error) {
	u, err := url.Parse(d.endpoint)
	if err != nil {
		return nil, &SearchError{Provider: d.Name(), Query: query, Message: "invalid endpoint", Err: err}
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &SearchError{Provider: d.Name(), Query: query, Message: "failed to create request", Err: err}
	}
	req.Header.Set("Accept", "text/html")

	body, err := doSearchRequest(ctx, d.client, req, d.Name(), query)
	if err != nil {
		return nil, err
	}

	snippets, err := parseDuckDuckGoHTML(body, maxResults)
	if err != nil {
		return nil, &SearchError{Provider: d.Name(), Query: query, Message: "failed to parse results", Err: err}
	}
	return snippets, nil
}

func parseDuckDuckGoHTML(body []byte, maxResults int) ([]Snippet, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var snippets []Snippet
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}
		link := s.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			return true
		}

		snippets = append(snippets, Snippet{
			Title:   title,
			URL:     unwrapDuckDuckGoLink(href),
			Content: strings.Join(strings.Fields(s.Find(".result__snippet").Text()), " "),
		})
		return maxResults <= 0 || len(snippets) < maxResults
	})

	return snippets, nil
}

// unwrapDuckDuckGoLink returns the target of a /l/?uddg= redirect link.
func unwrapDuckDuckGoLink(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
