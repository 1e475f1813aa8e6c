// Package index populates the project artifact graph from its external
// sources. Each source has one populator; the Indexer runs them in a fixed
// order because later populators link to nodes created by earlier ones.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/marctjones/idlergear/internal/config"
	"github.com/marctjones/idlergear/internal/gitcli"
	"github.com/marctjones/idlergear/internal/store"
	"github.com/marctjones/idlergear/internal/taskfs"
)

// Options is the shared populator input.
type Options struct {
	RepoPath    string
	Config      *config.Config
	Git         *gitcli.Client
	Tasks       taskfs.TaskSource
	Records     *taskfs.Dir // notes/references/plans reader
	Incremental bool
}

// ItemError records one per-item failure inside a populator run. Items never
// abort the batch; callers inspect these instead of grepping logs.
type ItemError struct {
	Item string
	Err  error
}

// Result aggregates one populator run.
type Result struct {
	Created       int
	Updated       int
	Relationships int
	Errors        []ItemError
}

func (r *Result) addErr(item string, err error) {
	r.Errors = append(r.Errors, ItemError{Item: item, Err: err})
}

// Populator performs one-way ETL from one external source into the graph.
// Populate never panics past its boundary: per-item failures land in
// Result.Errors, a missing source yields zero counts, and only a store
// failure is returned as an error.
type Populator interface {
	Name() string
	Populate(ctx context.Context, opts *Options) (*Result, error)
}

// Status is the orchestrator's record of one populator run.
type Status struct {
	Name     string
	Result   *Result
	Err      error
	Duration time.Duration
}

// Indexer runs all populators in dependency order.
type Indexer struct {
	Store *store.Store
	Opts  *Options
}

// New creates an Indexer over a project root with the default populator set.
func New(s *store.Store, repoPath string, cfg *config.Config) *Indexer {
	if cfg == nil {
		cfg = config.Default()
	}
	dir := taskfs.NewDir(repoPath)
	return &Indexer{
		Store: s,
		Opts: &Options{
			RepoPath:    repoPath,
			Config:      cfg,
			Git:         gitcli.New(repoPath),
			Tasks:       dir,
			Records:     dir,
			Incremental: true,
		},
	}
}

// populators returns the fixed execution order. Later entries depend on
// nodes created by earlier ones (symbols need Files from git, the linker
// needs Commits and Tasks, and so on).
func (ix *Indexer) populators() []Populator {
	return []Populator{
		&GitHistory{Store: ix.Store},
		&CodeSymbols{Store: ix.Store},
		&Tasks{Store: ix.Store},
		&CommitTaskLinker{Store: ix.Store},
		&References{Store: ix.Store},
		&Wiki{Store: ix.Store},
		&People{Store: ix.Store},
		&Dependencies{Store: ix.Store},
		&Tests{Store: ix.Store},
	}
}

// Run executes the full populator sequence under a repository-wide file
// lock, so two hook-fired indexing runs serialize instead of interleaving
// writes. A populator failure is recorded in its Status and the remaining
// populators still run — one broken source must not block the others.
func (ix *Indexer) Run(ctx context.Context) ([]Status, error) {
	lockDir := filepath.Join(ix.Opts.RepoPath, ".idlergear")
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir lock dir: %w", err)
	}
	lock := flock.New(filepath.Join(lockDir, "index.lock"))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("acquire index lock: %w", err)
	}
	defer lock.Unlock()

	if err := ix.Store.Initialize(false); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	slog.Info("index.start", "repo", ix.Opts.RepoPath)
	var statuses []Status
	for _, p := range ix.populators() {
		if err := ctx.Err(); err != nil {
			return statuses, err
		}
		t := time.Now()
		res, err := p.Populate(ctx, ix.Opts)
		st := Status{Name: p.Name(), Result: res, Err: err, Duration: time.Since(t)}
		statuses = append(statuses, st)
		if err != nil {
			slog.Error("populator.err", "name", p.Name(), "err", err)
			continue
		}
		slog.Info("populator.done", "name", p.Name(),
			"created", res.Created, "updated", res.Updated,
			"relationships", res.Relationships, "item_errors", len(res.Errors),
			"elapsed", st.Duration)
	}

	nc, _ := ix.Store.CountNodes()
	ec, _ := ix.Store.CountEdges()
	slog.Info("index.done", "nodes", nc, "edges", ec)
	return statuses, nil
}

// ensureFileNode returns the File node id for a repo-relative path, creating
// a placeholder when absent. A referenced-but-missing file is materialized as
// File{exists:false} rather than dropping the edge that needs it — later
// populators backfill the real node.
func ensureFileNode(s *store.Store, repoPath, relPath string) (int64, error) {
	key := store.FileKey(relPath)
	if n, err := s.FindNodeByKey("File", key); err != nil {
		return 0, err
	} else if n != nil {
		return n.ID, nil
	}

	exists := false
	if _, err := os.Stat(filepath.Join(repoPath, filepath.FromSlash(relPath))); err == nil {
		exists = true
	}
	return s.UpsertNode(&store.Node{
		Label:    "File",
		Key:      key,
		Name:     filepath.Base(relPath),
		FilePath: relPath,
		Properties: map[string]any{
			"exists": exists,
		},
	})
}
