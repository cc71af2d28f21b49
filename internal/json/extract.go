// Package json extracts JSON objects from model replies.
//
// Models often wrap the object they were asked for in prose or in a fenced
// markdown block. Only objects are recognized; arrays and scalars are not.
package json

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON returns the first JSON object found in response. It tries, in
// order: the whole reply, the body of a fenced ```json block anywhere in the
// reply, and the span from the first '{' to the last '}'.
func ExtractJSON(response string) (string, error) {
	candidates := []string{strings.TrimSpace(response)}
	if fenced, ok := fencedBlock(response); ok {
		candidates = append(candidates, fenced)
	}
	if start := strings.Index(response, "{"); start != -1 {
		if end := strings.LastIndex(response, "}"); end > start {
			candidates = append(candidates, response[start:end+1])
		}
	}

	for _, c := range candidates {
		if isObject(c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("failed to extract valid JSON from response: %q", preview(response, 100))
}

// ExtractJSONFromResponse extracts the JSON object in response and decodes it into T.
func ExtractJSONFromResponse[T any](response string) (T, error) {
	var result T
	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return result, nil
}

func isObject(s string) bool {
	if !strings.HasPrefix(s, "{") {
		return false
	}
	var obj map[string]json.RawMessage
	return json.Unmarshal([]byte(s), &obj) == nil
}

// fencedBlock returns the contents of the first ``` fence in s.
func fencedBlock(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start == -1 {
		return "", false
	}
	body := s[start+3:]
	// Skip the info string (e.g. "json") up to the end of the line.
	if nl := strings.IndexByte(body, '\n'); nl != -1 {
		body = body[nl+1:]
	}
	end := strings.Index(body, "```")
	if end == -1 {
		return "", false
	}
	return strings.TrimSpace(body[:end]), true
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
