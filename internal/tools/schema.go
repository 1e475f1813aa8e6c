package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleGetSchemaInfo(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := parseArgs(req); err != nil {
		return errResult(err.Error()), nil
	}

	info, err := s.store.GetSchemaInfo()
	if err != nil {
		return errResult(fmt.Sprintf("schema: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"nodes": info.Nodes,
		"edges": info.Edges,
	}), nil
}
