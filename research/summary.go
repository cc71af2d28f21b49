package research

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"

	ijson "github.com/richinex/scrivener/internal/json"
)

const summarySchemaJSON = `{
  "type": "object",
  "required": ["overview", "sources"],
  "properties": {
    "overview":       {"type": "string", "minLength": 1},
    "mission_values": {"type": "string"},
    "culture":        {"type": "string"},
    "recent_news":    {"type": "array", "items": {"type": "string"}},
    "products":       {"type": "array", "items": {"type": "string"}},
    "sources":        {"type": "array", "items": {"type": "string"}},
    "gaps":           {"type": "array", "items": {"type": "string"}}
  }
}`

var summarySchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(summarySchemaJSON))
})

// Summary is the structured research answer.
type Summary struct {
	Overview      string   `json:"overview"`
	MissionValues string   `json:"mission_values"`
	Culture       string   `json:"culture"`
	RecentNews    []string `json:"recent_news"`
	Products      []string `json:"products"`
	Sources       []string `json:"sources"`
	Gaps          []string `json:"gaps"`
}

// ParseSummary extracts and validates a Summary from a model answer.
func ParseSummary(answer string) (Summary, error) {
	raw, err := ijson.ExtractJSON(answer)
	if err != nil {
		return Summary{}, errors.Wrap(err, "no summary object in answer")
	}

	schema, err := summarySchema()
	if err != nil {
		return Summary{}, errors.Wrap(err, "failed to load summary schema")
	}
	result, err := schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return Summary{}, errors.Wrap(err, "failed to validate summary")
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return Summary{}, errors.Errorf("summary does not match schema: %s", strings.Join(msgs, "; "))
	}

	s, err := ijson.ExtractJSONFromResponse[Summary](raw)
	if err != nil {
		return Summary{}, errors.Wrap(err, "failed to decode summary")
	}
	return s, nil
}

// Text renders the summary as sectioned plain text for the letter prompts.
func (s Summary) Text() string {
	var sb strings.Builder
	section := func(title, body string) {
		body = strings.TrimSpace(body)
		if body == "" {
			return
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(title)
		sb.WriteString(":\n")
		sb.WriteString(body)
	}
	list := func(items []string) string {
		var lines []string
		for _, item := range items {
			if item = strings.TrimSpace(item); item != "" {
				lines = append(lines, "- "+item)
			}
		}
		return strings.Join(lines, "\n")
	}

	section("Overview", s.Overview)
	section("Mission and values", s.MissionValues)
	section("Culture", s.Culture)
	section("Recent news", list(s.RecentNews))
	section("Products and services", list(s.Products))
	section("Not found", list(s.Gaps))
	return sb.String()
}
