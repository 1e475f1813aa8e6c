package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/marctjones/idlergear/internal/query"
)

func (s *Server) handleTaskContext(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	taskID := getIntArg(args, "task_id", 0)
	if taskID <= 0 {
		return errResult("missing required 'task_id' parameter"), nil
	}

	tc, err := query.New(s.store).TaskContext(int64(taskID))
	if err != nil {
		return errResult(fmt.Sprintf("query error: %v", err)), nil
	}
	if tc.Task == nil {
		return errResult(fmt.Sprintf("task not found: #%d", taskID)), nil
	}
	return jsonResult(tc), nil
}

func (s *Server) handleFileContext(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	path := getStringArg(args, "path")
	if path == "" {
		return errResult("missing required 'path' parameter"), nil
	}

	fc, err := query.New(s.store).FileContext(path)
	if err != nil {
		return errResult(fmt.Sprintf("query error: %v", err)), nil
	}
	if fc.File == nil {
		return errResult(fmt.Sprintf("file not indexed: %s", path)), nil
	}
	return jsonResult(fc), nil
}

func (s *Server) handleRecentChanges(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	limit := getIntArg(args, "limit", 10)
	changes, err := query.New(s.store).RecentChanges(limit)
	if err != nil {
		return errResult(fmt.Sprintf("query error: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"changes": changes,
		"total":   len(changes),
	}), nil
}

func (s *Server) handleRelatedFiles(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	path := getStringArg(args, "path")
	if path == "" {
		return errResult("missing required 'path' parameter"), nil
	}

	related, err := query.New(s.store).RelatedFiles(path, getIntArg(args, "max_hops", 2))
	if err != nil {
		return errResult(fmt.Sprintf("query error: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"path":    path,
		"related": related,
		"total":   len(related),
	}), nil
}

func (s *Server) handleSearchSymbols(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	pattern := getStringArg(args, "pattern")
	if pattern == "" {
		return errResult("missing required 'pattern' parameter"), nil
	}

	symbols, err := query.New(s.store).SymbolsByName(pattern, getIntArg(args, "limit", 50))
	if err != nil {
		return errResult(fmt.Sprintf("query error: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"symbols": symbols,
		"total":   len(symbols),
	}), nil
}
