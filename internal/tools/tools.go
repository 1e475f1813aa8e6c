// Package tools exposes the indexer and query layer over MCP.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/marctjones/idlergear/internal/config"
	"github.com/marctjones/idlergear/internal/store"
)

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp      *mcp.Server
	store    *store.Store
	repoPath string
	cfg      *config.Config
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(s *store.Store, repoPath string, cfg *config.Config) *Server {
	srv := &Server{
		store:    s,
		repoPath: repoPath,
		cfg:      cfg,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "idlergear",
				Version: "0.1.0",
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	// 1. index_project
	s.mcp.AddTool(&mcp.Tool{
		Name:        "index_project",
		Description: "Index the project into the artifact graph: git history, code symbols, tasks, references, wiki, people, dependencies and tests. Incremental by default — unchanged files and documents are skipped via content hashing.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"full": {
					"type": "boolean",
					"description": "Re-parse everything, ignoring stored content hashes"
				}
			}
		}`),
	}, s.handleIndexProject)

	// 2. task_context
	s.mcp.AddTool(&mcp.Tool{
		Name:        "task_context",
		Description: "Return everything the graph knows around one task: the files it modified, the commits that implemented it, and the symbols in those files.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"task_id": {
					"type": "integer",
					"description": "Numeric task id (the N in '#N')"
				}
			},
			"required": ["task_id"]
		}`),
	}, s.handleTaskContext)

	// 3. file_context
	s.mcp.AddTool(&mcp.Tool{
		Name:        "file_context",
		Description: "Return everything the graph knows around one file: the tasks that modified it, the files it imports, and the symbols it contains.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "Repository-relative file path (e.g. 'src/app.py')"
				}
			},
			"required": ["path"]
		}`),
	}, s.handleFileContext)

	// 4. recent_changes
	s.mcp.AddTool(&mcp.Tool{
		Name:        "recent_changes",
		Description: "Return the most recent commits, newest first, each with its changed-file list.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"limit": {
					"type": "integer",
					"description": "Maximum number of commits to return (default 10)"
				}
			}
		}`),
	}, s.handleRecentChanges)

	// 5. related_files
	s.mcp.AddTool(&mcp.Tool{
		Name:        "related_files",
		Description: "Walk the import graph in both directions from a file and return the related files within a hop limit, nearest first.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "Repository-relative file path"
				},
				"max_hops": {
					"type": "integer",
					"description": "Maximum import-graph distance (default 2)"
				}
			},
			"required": ["path"]
		}`),
	}, s.handleRelatedFiles)

	// 6. search_symbols
	s.mcp.AddTool(&mcp.Tool{
		Name:        "search_symbols",
		Description: "Find symbols by case-insensitive substring match on their name.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"pattern": {
					"type": "string",
					"description": "Substring to match against symbol names"
				},
				"limit": {
					"type": "integer",
					"description": "Maximum results (default 50)"
				}
			},
			"required": ["pattern"]
		}`),
	}, s.handleSearchSymbols)

	// 7. get_schema_info
	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_schema_info",
		Description: "Return the graph schema: every node label and relationship type with its count, including empty ones. Use to understand what's in the graph before querying.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleGetSchemaInfo)
}

// jsonResult marshals data to JSON and returns as tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

// getStringArg extracts a string argument from parsed args.
func getStringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// getIntArg extracts an integer argument with a default value.
func getIntArg(args map[string]any, key string, defaultVal int) int {
	v, ok := args[key]
	if !ok {
		return defaultVal
	}
	f, ok := v.(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}

// getBoolArg extracts a boolean argument from parsed args.
func getBoolArg(args map[string]any, key string) bool {
	v, ok := args[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		return false
	}
	return b
}
