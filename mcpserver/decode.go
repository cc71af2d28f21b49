package mcpserver

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/pkg/errors"
)

// decode unmarshals tool arguments into a typed struct.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, errors.Wrap(err, "marshal args")
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, errors.Wrap(err, "unmarshal args")
	}
	return result, nil
}
