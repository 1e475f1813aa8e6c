package index

import (
	"context"
	"fmt"

	"github.com/marctjones/idlergear/internal/store"
)

// References upserts Reference nodes from the reference-document backend and
// links them to the files and tasks their bodies mention. Links only attach
// to nodes that already exist in the graph — a reference to an unknown file
// or task is dropped silently, never materialized as a placeholder.
type References struct {
	Store *store.Store
}

func (p *References) Name() string { return "references" }

func (p *References) Populate(ctx context.Context, opts *Options) (*Result, error) {
	res := &Result{}
	if opts.Records == nil {
		return res, nil
	}

	refs, err := opts.Records.ListReferences(ctx)
	if err != nil {
		return res, nil
	}

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		mentions := extractMentions(ref.Body, ref.Title, false)
		tags := ref.Tags
		if len(tags) == 0 {
			tags = mentions.Tags
		}

		key := store.ReferenceKey(ref.ID)
		existing, err := p.Store.NodeExists("Reference", key)
		if err != nil {
			return res, err
		}
		refID, err := p.Store.UpsertNode(&store.Node{
			Label:    "Reference",
			Key:      key,
			Name:     mentions.Title,
			FilePath: ref.Path,
			Properties: map[string]any{
				"title": mentions.Title,
				"path":  ref.Path,
				"tags":  tags,
			},
		})
		if err != nil {
			return res, err
		}
		if existing {
			res.Updated++
		} else {
			res.Created++
		}

		for _, path := range mentions.Files {
			file, err := p.Store.FindNodeByKey("File", store.FileKey(path))
			if err != nil {
				return res, err
			}
			if file == nil {
				continue
			}
			has, err := p.Store.HasEdge(refID, file.ID, "DOCUMENTS_FILE")
			if err != nil {
				return res, err
			}
			if has {
				continue
			}
			if _, err := p.Store.InsertEdge(&store.Edge{
				SourceID: refID, TargetID: file.ID, Type: "DOCUMENTS_FILE",
			}); err != nil {
				res.addErr(fmt.Sprintf("ref %d -> %s", ref.ID, path), err)
				continue
			}
			res.Relationships++
		}

		for _, taskID := range mentions.Tasks {
			task, err := p.Store.FindNodeByKey("Task", store.TaskKey(taskID))
			if err != nil {
				return res, err
			}
			if task == nil {
				continue
			}
			has, err := p.Store.HasEdge(refID, task.ID, "DOC_REFERENCES_TASK")
			if err != nil {
				return res, err
			}
			if has {
				continue
			}
			if _, err := p.Store.InsertEdge(&store.Edge{
				SourceID: refID, TargetID: task.ID, Type: "DOC_REFERENCES_TASK",
			}); err != nil {
				res.addErr(fmt.Sprintf("ref %d -> task %d", ref.ID, taskID), err)
				continue
			}
			res.Relationships++
		}
	}
	return res, nil
}
