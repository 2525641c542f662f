package mcp

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/thoughts/internal/errors"
)

// decode unmarshals MCP request arguments into a typed struct.
// Shape mismatches are reported as INVALID_REQUEST.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, errors.NewInvalidRequest("arguments: " + err.Error())
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, errors.NewInvalidRequest("arguments: " + err.Error())
	}
	return result, nil
}
