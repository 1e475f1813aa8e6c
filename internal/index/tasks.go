package index

import (
	"context"
	"log/slog"
	"time"

	"github.com/marctjones/idlergear/internal/store"
	"github.com/marctjones/idlergear/internal/taskfs"
)

// Tasks upserts Task, Plan and Note nodes from the task backend. It is the
// only populator that writes these labels; state changes (a task closing, a
// plan finishing) update the existing node in place.
type Tasks struct {
	Store *store.Store
}

func (p *Tasks) Name() string { return "tasks" }

func (p *Tasks) Populate(ctx context.Context, opts *Options) (*Result, error) {
	res := &Result{}
	if opts.Tasks == nil {
		return res, nil
	}

	records, err := opts.Tasks.List(ctx, "")
	if err != nil {
		slog.Warn("tasks.list.err", "err", err)
		return res, nil
	}

	for _, t := range records {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		key := store.TaskKey(t.ID)
		existing, err := p.Store.NodeExists("Task", key)
		if err != nil {
			return res, err
		}
		if _, err := p.Store.UpsertNode(&store.Node{
			Label: "Task",
			Key:   key,
			Name:  t.Title,
			Properties: map[string]any{
				"title":    t.Title,
				"body":     t.Body,
				"state":    t.State,
				"priority": t.Priority,
				"labels":   t.Labels,
				"source":   t.Source,
				"created":  timeProp(t.Created),
				"updated":  timeProp(t.Updated),
				"closed":   timeProp(t.Closed),
			},
		}); err != nil {
			return res, err
		}
		if existing {
			res.Updated++
		} else {
			res.Created++
		}
	}

	if opts.Records != nil {
		if err := p.populatePlans(ctx, opts.Records, res); err != nil {
			return res, err
		}
		if err := p.populateNotes(ctx, opts.Records, res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (p *Tasks) populatePlans(ctx context.Context, records *taskfs.Dir, res *Result) error {
	plans, err := records.ListPlans(ctx)
	if err != nil {
		return nil
	}
	for _, plan := range plans {
		key := store.PlanKey(plan.Name)
		existing, err := p.Store.NodeExists("Plan", key)
		if err != nil {
			return err
		}
		if _, err := p.Store.UpsertNode(&store.Node{
			Label: "Plan",
			Key:   key,
			Name:  plan.Name,
			Properties: map[string]any{
				"status": plan.Status,
				"body":   plan.Body,
			},
		}); err != nil {
			return err
		}
		if existing {
			res.Updated++
		} else {
			res.Created++
		}
	}
	return nil
}

func (p *Tasks) populateNotes(ctx context.Context, records *taskfs.Dir, res *Result) error {
	notes, err := records.ListNotes(ctx)
	if err != nil {
		return nil
	}
	for _, note := range notes {
		key := store.NoteKey(note.ID)
		existing, err := p.Store.NodeExists("Note", key)
		if err != nil {
			return err
		}
		if _, err := p.Store.UpsertNode(&store.Node{
			Label: "Note",
			Key:   key,
			Name:  note.Title,
			Properties: map[string]any{
				"body":    note.Body,
				"created": timeProp(note.Created),
			},
		}); err != nil {
			return err
		}
		if existing {
			res.Updated++
		} else {
			res.Created++
		}
	}
	return nil
}

func timeProp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
