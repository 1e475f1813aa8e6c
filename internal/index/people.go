package index

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/marctjones/idlergear/internal/store"
)

// People derives Person nodes from commit authorship and blame, producing
// AUTHORED(Person→Commit) and OWNS(Person→File) edges. Ownership is the
// blame line share, recomputed (not accumulated) every run so re-indexing
// converges instead of drifting.
type People struct {
	Store *store.Store
}

func (p *People) Name() string { return "people" }

func (p *People) Populate(ctx context.Context, opts *Options) (*Result, error) {
	res := &Result{}
	if opts.Git == nil || !opts.Git.IsRepo() {
		return res, nil
	}

	people, err := p.populateAuthors(ctx, opts, res)
	if err != nil {
		return res, err
	}
	if err := p.populateOwnership(ctx, opts, people, res); err != nil {
		return res, err
	}
	return res, nil
}

// populateAuthors upserts a Person per distinct author email, with running
// commit counts and first/last-seen timestamps taken from the full history —
// the history-walk bound only limits which Commit nodes exist, not who a
// person is. AUTHORED edges link to whatever Commit nodes are indexed.
// Returns email → person node id.
func (p *People) populateAuthors(ctx context.Context, opts *Options, res *Result) (map[string]int64, error) {
	stats, err := opts.Git.Authors(ctx)
	if err != nil {
		return nil, err
	}
	commits, err := p.Store.FindNodesByLabel("Commit")
	if err != nil {
		return nil, err
	}
	byEmail := make(map[string][]*store.Node)
	for _, commit := range commits {
		if email, _ := commit.Properties["author_email"].(string); email != "" {
			byEmail[email] = append(byEmail[email], commit)
		}
	}

	people := make(map[string]int64)
	for email, st := range stats {
		if err := ctx.Err(); err != nil {
			return people, err
		}
		key := store.PersonKey(email)
		existing, err := p.Store.NodeExists("Person", key)
		if err != nil {
			return people, err
		}
		personID, err := p.Store.UpsertNode(&store.Node{
			Label: "Person",
			Key:   key,
			Name:  st.Name,
			Properties: map[string]any{
				"email":        email,
				"commit_count": st.Commits,
				"first_commit": st.First.Format(time.RFC3339),
				"last_commit":  st.Last.Format(time.RFC3339),
			},
		})
		if err != nil {
			return people, err
		}
		people[email] = personID
		if existing {
			res.Updated++
		} else {
			res.Created++
		}

		for _, commit := range byEmail[email] {
			has, err := p.Store.HasEdge(personID, commit.ID, "AUTHORED")
			if err != nil {
				return people, err
			}
			if !has {
				if _, err := p.Store.InsertEdge(&store.Edge{
					SourceID: personID, TargetID: commit.ID, Type: "AUTHORED",
				}); err != nil {
					res.addErr(commit.Name, err)
					continue
				}
				res.Relationships++
			}
		}
	}
	return people, nil
}

// populateOwnership blames every existing source file and records each
// author's line share. InsertEdge's conflict update refreshes the properties
// of an existing OWNS edge, so stale percentages are overwritten in place.
func (p *People) populateOwnership(ctx context.Context, opts *Options, people map[string]int64, res *Result) error {
	files, err := p.Store.FindNodesByLabel("File")
	if err != nil {
		return err
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if exists, _ := file.Properties["exists"].(bool); !exists {
			continue
		}

		blame, err := opts.Git.Blame(ctx, file.FilePath)
		if err != nil {
			// Untracked or freshly-moved files blame-fail routinely; not
			// worth an item error.
			slog.Debug("people.blame.skip", "file", file.FilePath, "err", err)
			continue
		}

		total := 0
		for _, entry := range blame {
			total += entry.Lines
		}
		if total == 0 {
			continue
		}

		for email, entry := range blame {
			personID, ok := people[email]
			if !ok {
				// Blame can surface authors outside the indexed commit
				// window; give them a node too.
				key := store.PersonKey(email)
				existing, err := p.Store.NodeExists("Person", key)
				if err != nil {
					return err
				}
				personID, err = p.Store.UpsertNode(&store.Node{
					Label:      "Person",
					Key:        key,
					Name:       entry.Name,
					Properties: map[string]any{"email": email},
				})
				if err != nil {
					return err
				}
				people[email] = personID
				if existing {
					res.Updated++
				} else {
					res.Created++
				}
			}

			percent := math.Round(float64(entry.Lines)*1000/float64(total)) / 10
			had, err := p.Store.HasEdge(personID, file.ID, "OWNS")
			if err != nil {
				return err
			}
			if _, err := p.Store.InsertEdge(&store.Edge{
				SourceID: personID,
				TargetID: file.ID,
				Type:     "OWNS",
				Properties: map[string]any{
					"ownership_percent": percent,
					"lines_contributed": entry.Lines,
				},
			}); err != nil {
				res.addErr(file.FilePath, err)
				continue
			}
			if !had {
				res.Relationships++
			}
		}
	}
	return nil
}
