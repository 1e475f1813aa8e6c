package index

import (
	"context"
	"regexp"
	"strconv"

	"github.com/marctjones/idlergear/internal/store"
)

// taskRefPatterns are tried in order against commit messages. The explicit
// "Task: #N" form wins over closing verbs, which win over a bare "#N"; all
// three contribute ids, deduplicated.
var taskRefPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)task:\s*#(\d+)`),
	regexp.MustCompile(`(?i)\b(?:close[sd]?|fix(?:e[sd])?|resolve[sd]?)\s*:?\s*#(\d+)`),
	regexp.MustCompile(`#(\d+)`),
}

// extractTaskIDs returns the distinct task ids referenced by a commit
// message, in first-mention order.
func extractTaskIDs(message string) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, re := range taskRefPatterns {
		for _, m := range re.FindAllStringSubmatch(message, -1) {
			id, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// CommitTaskLinker infers task↔commit links from commit messages, then
// derives task→file traceability from each linked commit's CHANGES edges.
// MODIFIES is never asserted directly by any source — it only ever comes
// from this synthesis.
type CommitTaskLinker struct {
	Store *store.Store
}

func (p *CommitTaskLinker) Name() string { return "commit_task_linker" }

func (p *CommitTaskLinker) Populate(ctx context.Context, opts *Options) (*Result, error) {
	res := &Result{}

	commits, err := p.Store.FindNodesByLabel("Commit")
	if err != nil {
		return res, err
	}

	for _, commit := range commits {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		// Already-linked commits were fully processed on a previous run.
		linked, err := p.Store.FindEdgesByTargetAndType(commit.ID, "IMPLEMENTED_IN")
		if err != nil {
			return res, err
		}
		if len(linked) > 0 {
			continue
		}

		message, _ := commit.Properties["message"].(string)
		for _, taskID := range extractTaskIDs(message) {
			task, err := p.Store.FindNodeByKey("Task", store.TaskKey(taskID))
			if err != nil {
				return res, err
			}
			if task == nil {
				continue // mentioned task is not in the graph: no edge
			}

			has, err := p.Store.HasEdge(task.ID, commit.ID, "IMPLEMENTED_IN")
			if err != nil {
				return res, err
			}
			if !has {
				if _, err := p.Store.InsertEdge(&store.Edge{
					SourceID: task.ID, TargetID: commit.ID, Type: "IMPLEMENTED_IN",
				}); err != nil {
					res.addErr(commit.Name, err)
					continue
				}
				res.Relationships++
			}

			if err := p.linkModifiedFiles(task.ID, commit.ID, res); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}

// linkModifiedFiles walks a commit's CHANGES edges and synthesizes
// MODIFIES(Task→File) edges carrying the change status.
func (p *CommitTaskLinker) linkModifiedFiles(taskID, commitID int64, res *Result) error {
	changes, err := p.Store.FindEdgesBySourceAndType(commitID, "CHANGES")
	if err != nil {
		return err
	}
	for _, ch := range changes {
		has, err := p.Store.HasEdge(taskID, ch.TargetID, "MODIFIES")
		if err != nil {
			return err
		}
		if has {
			continue
		}
		changeType, _ := ch.Properties["status"].(string)
		if _, err := p.Store.InsertEdge(&store.Edge{
			SourceID:   taskID,
			TargetID:   ch.TargetID,
			Type:       "MODIFIES",
			Properties: map[string]any{"change_type": changeType},
		}); err != nil {
			return err
		}
		res.Relationships++
	}
	return nil
}
