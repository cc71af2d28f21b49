// HTTP plumbing shared by the HTTP search backends.
//
// Information Hiding:
// - Client construction and timeouts
// - Mapping transport and status failures to *SearchError

package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// maxResponseBytes bounds how much of a search response is read.
const maxResponseBytes = 4 << 20

func newHTTPClient(timeoutSecs uint64) *http.Client {
	if timeoutSecs == 0 {
		timeoutSecs = DefaultToolTimeout
	}
	return &http.Client{Timeout: time.Duration(timeoutSecs) * time.Second}
}

// doSearchRequest sends req and returns the body of a 2xx response.
func doSearchRequest(ctx context.Context, client *http.Client, req *http.Request, provider, query string) ([]byte, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		msg := "request failed"
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			msg = "request timed out"
		}
		return nil, &SearchError{Provider: provider, Query: query, Message: msg, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &SearchError{Provider: provider, Query: query, Message: "failed to read response body", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &SearchError{
			Provider:   provider,
			Query:      query,
			Message:    fmt.Sprintf("HTTP error: %s", resp.Status),
			StatusCode: resp.StatusCode,
		}
	}
	return body, nil
}
