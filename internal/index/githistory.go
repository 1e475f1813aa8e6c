package index

import (
	"context"
	"log/slog"
	"time"

	"github.com/marctjones/idlergear/internal/store"
)

// GitHistory walks the commit log and creates Commit, Branch and File nodes
// plus one CHANGES edge per touched file. Commits already in the graph are
// skipped, so repeated runs only pay for new history.
type GitHistory struct {
	Store *store.Store
}

func (p *GitHistory) Name() string { return "git_history" }

func (p *GitHistory) Populate(ctx context.Context, opts *Options) (*Result, error) {
	res := &Result{}

	if opts.Git == nil || !opts.Git.IsRepo() {
		slog.Info("githistory.skip", "reason", "not_a_repo")
		return res, nil
	}

	commits, err := opts.Git.Log(ctx, opts.Config.MaxCommits, opts.Config.Since)
	if err != nil {
		// Source unavailable, not a store failure: zero counts.
		slog.Warn("githistory.log.err", "err", err)
		return res, nil
	}

	if branches, err := opts.Git.Branches(ctx); err == nil {
		for _, b := range branches {
			node, findErr := p.Store.FindNodeByKey("Branch", store.BranchKey(b))
			if findErr != nil {
				return res, findErr
			}
			if node != nil {
				continue
			}
			if _, err := p.Store.UpsertNode(&store.Node{
				Label: "Branch", Key: store.BranchKey(b), Name: b,
			}); err != nil {
				return res, err
			}
			res.Created++
		}
	}

	for _, c := range commits {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		exists, err := p.Store.NodeExists("Commit", store.CommitKey(c.Hash))
		if err != nil {
			return res, err
		}
		if exists {
			continue
		}

		branch, _ := opts.Git.BranchContaining(ctx, c.Hash)
		commitID, err := p.Store.UpsertNode(&store.Node{
			Label: "Commit",
			Key:   store.CommitKey(c.Hash),
			Name:  c.ShortHash,
			Properties: map[string]any{
				"short_hash":   c.ShortHash,
				"message":      c.Message,
				"author_name":  c.AuthorName,
				"author_email": c.AuthorEmail,
				"timestamp":    c.Timestamp.Format(time.RFC3339),
				"branch":       branch,
			},
		})
		if err != nil {
			return res, err
		}
		res.Created++

		for _, fc := range c.Files {
			fileID, err := ensureFileNode(p.Store, opts.RepoPath, fc.Path)
			if err != nil {
				return res, err
			}
			if _, err := p.Store.InsertEdge(&store.Edge{
				SourceID: commitID,
				TargetID: fileID,
				Type:     "CHANGES",
				Properties: map[string]any{
					"insertions": fc.Insertions,
					"deletions":  fc.Deletions,
					"status":     fc.Status,
				},
			}); err != nil {
				res.addErr(c.ShortHash+":"+fc.Path, err)
				continue
			}
			res.Relationships++
		}
	}
	return res, nil
}
