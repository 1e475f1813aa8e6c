package index

import (
	"context"
	"testing"

	"github.com/marctjones/idlergear/internal/store"
	"github.com/marctjones/idlergear/internal/taskfs"
)

func TestTasksPopulate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".idlergear/tasks/7.md", `---
id: 7
title: Fix login bug
state: open
priority: high
---
Body.
`)
	writeFile(t, root, ".idlergear/plans/q3.md", `---
status: active
---
Plan body.
`)
	writeFile(t, root, ".idlergear/notes/1.md", `---
id: 1
title: Scratch note
created: 2026-03-01T12:00:00Z
---
Note body.
`)

	s := newTestStore(t)
	dir := taskfs.NewDir(root)
	opts := &Options{RepoPath: root, Config: defaultTestConfig(), Tasks: dir, Records: dir}

	p := &Tasks{Store: s}
	res, err := p.Populate(context.Background(), opts)
	if err != nil {
		t.Fatalf("Populate: %v", err)
	}
	if res.Created != 3 {
		t.Errorf("created = %d, want task + plan + note", res.Created)
	}

	task, _ := s.FindNodeByKey("Task", store.TaskKey(7))
	if task == nil || task.Properties["priority"] != "high" {
		t.Errorf("task = %+v", task)
	}
	plan, _ := s.FindNodeByKey("Plan", store.PlanKey("q3"))
	if plan == nil || plan.Properties["status"] != "active" {
		t.Errorf("plan = %+v", plan)
	}
	note, _ := s.FindNodeByKey("Note", store.NoteKey(1))
	if note == nil || note.Name != "Scratch note" {
		t.Errorf("note = %+v", note)
	}

	// A state change updates the existing node instead of duplicating it.
	writeFile(t, root, ".idlergear/tasks/7.md", `---
id: 7
title: Fix login bug
state: closed
---
Body.
`)
	res2, err := p.Populate(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Populate: %v", err)
	}
	if res2.Created != 0 || res2.Updated != 3 {
		t.Errorf("second run created=%d updated=%d, want 0/3", res2.Created, res2.Updated)
	}
	task, _ = s.FindNodeByKey("Task", store.TaskKey(7))
	if task.Properties["state"] != "closed" {
		t.Errorf("state not updated: %v", task.Properties["state"])
	}
	count, _ := s.CountNodesByLabel("Task")
	if count != 1 {
		t.Errorf("task count = %d, want 1", count)
	}
}
