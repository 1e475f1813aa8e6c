package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/marctjones/idlergear/internal/index"
	"github.com/marctjones/idlergear/internal/store"
)

func (s *Server) handleIndexProject(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	ix := index.New(s.store, s.repoPath, s.cfg)
	if getBoolArg(args, "full") {
		ix.Opts.Incremental = false
	}

	statuses, err := ix.Run(ctx)
	if err != nil {
		return errResult(fmt.Sprintf("indexing failed: %v", err)), nil
	}

	type populatorReport struct {
		Name          string `json:"name"`
		Created       int    `json:"created"`
		Updated       int    `json:"updated"`
		Relationships int    `json:"relationships"`
		ItemErrors    int    `json:"item_errors"`
		Err           string `json:"err,omitempty"`
		ElapsedMS     int64  `json:"elapsed_ms"`
	}

	reports := make([]populatorReport, 0, len(statuses))
	for _, st := range statuses {
		r := populatorReport{Name: st.Name, ElapsedMS: st.Duration.Milliseconds()}
		if st.Err != nil {
			r.Err = st.Err.Error()
		}
		if st.Result != nil {
			r.Created = st.Result.Created
			r.Updated = st.Result.Updated
			r.Relationships = st.Result.Relationships
			r.ItemErrors = len(st.Result.Errors)
		}
		reports = append(reports, r)
	}

	nodeCount, _ := s.store.CountNodes()
	edgeCount, _ := s.store.CountEdges()

	return jsonResult(map[string]any{
		"repo":       s.repoPath,
		"populators": reports,
		"nodes":      nodeCount,
		"edges":      edgeCount,
		"indexed_at": store.Now(),
	}), nil
}
