// Package query answers multi-hop context questions over the artifact graph.
// Everything here is read-only and returns fully materialized typed results;
// collections are always non-nil so callers and serializers never have to
// distinguish "no results" from "not queried".
package query

import (
	"sort"

	"github.com/marctjones/idlergear/internal/store"
)

// Engine runs read-only queries over one store.
type Engine struct {
	Store *store.Store
}

func New(s *store.Store) *Engine {
	return &Engine{Store: s}
}

// TaskContext is everything the graph knows around one task.
type TaskContext struct {
	Task    *store.Node   `json:"task"`
	Files   []*store.Node `json:"files"`
	Commits []*store.Node `json:"commits"`
	Symbols []*store.Node `json:"symbols"`
}

// TaskContext collects the files a task modified, the commits that
// implemented it, and the symbols contained in those files. A nil Task with
// no error means the task is not in the graph.
func (e *Engine) TaskContext(taskID int64) (*TaskContext, error) {
	tc := &TaskContext{
		Files:   []*store.Node{},
		Commits: []*store.Node{},
		Symbols: []*store.Node{},
	}

	task, err := e.Store.FindNodeByKey("Task", store.TaskKey(taskID))
	if err != nil {
		return nil, err
	}
	if task == nil {
		return tc, nil
	}
	tc.Task = task

	seenFiles := make(map[int64]bool)
	modifies, err := e.Store.FindEdgesBySourceAndType(task.ID, "MODIFIES")
	if err != nil {
		return nil, err
	}
	for _, edge := range modifies {
		if seenFiles[edge.TargetID] {
			continue
		}
		seenFiles[edge.TargetID] = true
		file, err := e.Store.FindNodeByID(edge.TargetID)
		if err != nil || file == nil {
			continue
		}
		tc.Files = append(tc.Files, file)

		symbols, err := e.Store.FindNodesByFile("Symbol", file.FilePath)
		if err != nil {
			return nil, err
		}
		tc.Symbols = append(tc.Symbols, symbols...)
	}

	implemented, err := e.Store.FindEdgesBySourceAndType(task.ID, "IMPLEMENTED_IN")
	if err != nil {
		return nil, err
	}
	for _, edge := range implemented {
		commit, err := e.Store.FindNodeByID(edge.TargetID)
		if err != nil || commit == nil {
			continue
		}
		tc.Commits = append(tc.Commits, commit)
	}
	return tc, nil
}

// FileContext is everything the graph knows around one file.
type FileContext struct {
	File    *store.Node   `json:"file"`
	Tasks   []*store.Node `json:"tasks"`
	Imports []*store.Node `json:"imports"`
	Symbols []*store.Node `json:"symbols"`
}

// FileContext collects the tasks that modified a file, the files it imports,
// and the symbols it contains.
func (e *Engine) FileContext(relPath string) (*FileContext, error) {
	fc := &FileContext{
		Tasks:   []*store.Node{},
		Imports: []*store.Node{},
		Symbols: []*store.Node{},
	}

	file, err := e.Store.FindNodeByKey("File", store.FileKey(relPath))
	if err != nil {
		return nil, err
	}
	if file == nil {
		return fc, nil
	}
	fc.File = file

	modifies, err := e.Store.FindEdgesByTargetAndType(file.ID, "MODIFIES")
	if err != nil {
		return nil, err
	}
	for _, edge := range modifies {
		task, err := e.Store.FindNodeByID(edge.SourceID)
		if err != nil || task == nil {
			continue
		}
		fc.Tasks = append(fc.Tasks, task)
	}

	imports, err := e.Store.FindEdgesBySourceAndType(file.ID, "IMPORTS")
	if err != nil {
		return nil, err
	}
	for _, edge := range imports {
		target, err := e.Store.FindNodeByID(edge.TargetID)
		if err != nil || target == nil {
			continue
		}
		fc.Imports = append(fc.Imports, target)
	}

	symbols, err := e.Store.FindNodesByFile("Symbol", relPath)
	if err != nil {
		return nil, err
	}
	fc.Symbols = append(fc.Symbols, symbols...)
	return fc, nil
}

// Change is one commit with its changed-file paths.
type Change struct {
	Commit *store.Node `json:"commit"`
	Files  []string    `json:"files"`
}

// RecentChanges returns the most recent commits, newest first, each with the
// paths its CHANGES edges point at. limit defaults to 10.
func (e *Engine) RecentChanges(limit int) ([]*Change, error) {
	if limit <= 0 {
		limit = 10
	}

	commits, err := e.Store.FindNodesByLabel("Commit")
	if err != nil {
		return nil, err
	}
	// Timestamps are RFC3339, so the lexicographic order is the time order.
	sort.Slice(commits, func(i, j int) bool {
		ti, _ := commits[i].Properties["timestamp"].(string)
		tj, _ := commits[j].Properties["timestamp"].(string)
		return ti > tj
	})
	if len(commits) > limit {
		commits = commits[:limit]
	}

	changes := make([]*Change, 0, len(commits))
	for _, commit := range commits {
		ch := &Change{Commit: commit, Files: []string{}}
		edges, err := e.Store.FindEdgesBySourceAndType(commit.ID, "CHANGES")
		if err != nil {
			return nil, err
		}
		for _, edge := range edges {
			file, err := e.Store.FindNodeByID(edge.TargetID)
			if err != nil || file == nil {
				continue
			}
			ch.Files = append(ch.Files, file.FilePath)
		}
		sort.Strings(ch.Files)
		changes = append(changes, ch)
	}
	return changes, nil
}

// RelatedFile is one file reachable over the import graph.
type RelatedFile struct {
	File *store.Node `json:"file"`
	Hops int         `json:"hops"`
}

// RelatedFiles walks the IMPORTS graph in both directions from a file and
// returns the deduplicated reachable set within maxHops (default 2).
func (e *Engine) RelatedFiles(relPath string, maxHops int) ([]*RelatedFile, error) {
	if maxHops <= 0 {
		maxHops = 2
	}

	file, err := e.Store.FindNodeByKey("File", store.FileKey(relPath))
	if err != nil {
		return nil, err
	}
	related := []*RelatedFile{}
	if file == nil {
		return related, nil
	}

	seen := map[int64]bool{file.ID: true}
	for _, direction := range []string{"outbound", "inbound"} {
		tr, err := e.Store.BFS(file.ID, direction, []string{"IMPORTS"}, maxHops, 200)
		if err != nil {
			return nil, err
		}
		for _, hop := range tr.Visited {
			if seen[hop.Node.ID] {
				continue
			}
			seen[hop.Node.ID] = true
			related = append(related, &RelatedFile{File: hop.Node, Hops: hop.Hop})
		}
	}
	sort.Slice(related, func(i, j int) bool {
		if related[i].Hops != related[j].Hops {
			return related[i].Hops < related[j].Hops
		}
		return related[i].File.FilePath < related[j].File.FilePath
	})
	return related, nil
}

// SymbolsByName finds symbols whose name contains the pattern,
// case-insensitive. limit defaults to 50.
func (e *Engine) SymbolsByName(pattern string, limit int) ([]*store.Node, error) {
	nodes, err := e.Store.SearchNodesByName("Symbol", pattern, limit)
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []*store.Node{}
	}
	return nodes, nil
}
