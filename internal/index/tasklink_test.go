package index

import (
	"context"
	"reflect"
	"testing"

	"github.com/marctjones/idlergear/internal/store"
)

func TestExtractTaskIDs(t *testing.T) {
	tests := []struct {
		message string
		want    []int64
	}{
		{"Task: #12 add retry loop", []int64{12}},
		{"fix: Closes #7", []int64{7}},
		{"Fixes #3 and resolves #4", []int64{3, 4}},
		{"see #9 for context", []int64{9}},
		{"Task: #1 closes #2 and mentions #3", []int64{1, 2, 3}},
		{"closes #5, closes #5 again", []int64{5}},
		{"no references here", nil},
		{"issue number without hash 12", nil},
	}
	for _, tt := range tests {
		got := extractTaskIDs(tt.message)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("extractTaskIDs(%q) = %v, want %v", tt.message, got, tt.want)
		}
	}
}

func TestCommitTaskLinker(t *testing.T) {
	s := newTestStore(t)

	taskID, err := s.UpsertNode(&store.Node{
		Label: "Task", Key: store.TaskKey(7), Name: "Fix login",
		Properties: map[string]any{"state": "open"},
	})
	if err != nil {
		t.Fatalf("upsert task: %v", err)
	}
	fileID, err := s.UpsertNode(&store.Node{
		Label: "File", Key: store.FileKey("app.py"), Name: "app.py", FilePath: "app.py",
	})
	if err != nil {
		t.Fatalf("upsert file: %v", err)
	}
	commitID, err := s.UpsertNode(&store.Node{
		Label: "Commit", Key: store.CommitKey("abc123"), Name: "abc123",
		Properties: map[string]any{"message": "fix: Closes #7"},
	})
	if err != nil {
		t.Fatalf("upsert commit: %v", err)
	}
	if _, err := s.InsertEdge(&store.Edge{
		SourceID: commitID, TargetID: fileID, Type: "CHANGES",
		Properties: map[string]any{"status": "modified"},
	}); err != nil {
		t.Fatalf("insert CHANGES: %v", err)
	}

	// A commit mentioning a task that isn't in the graph must not create one.
	if _, err := s.UpsertNode(&store.Node{
		Label: "Commit", Key: store.CommitKey("def456"), Name: "def456",
		Properties: map[string]any{"message": "closes #999"},
	}); err != nil {
		t.Fatalf("upsert commit: %v", err)
	}

	linker := &CommitTaskLinker{Store: s}
	res, err := linker.Populate(context.Background(), &Options{})
	if err != nil {
		t.Fatalf("Populate: %v", err)
	}
	if res.Relationships != 2 {
		t.Errorf("relationships = %d, want 2 (IMPLEMENTED_IN + MODIFIES)", res.Relationships)
	}

	has, _ := s.HasEdge(taskID, commitID, "IMPLEMENTED_IN")
	if !has {
		t.Error("missing IMPLEMENTED_IN edge")
	}
	has, _ = s.HasEdge(taskID, fileID, "MODIFIES")
	if !has {
		t.Error("missing MODIFIES edge")
	}

	if exists, _ := s.NodeExists("Task", store.TaskKey(999)); exists {
		t.Error("linker materialized a placeholder task")
	}

	// Second run is a no-op.
	res2, err := linker.Populate(context.Background(), &Options{})
	if err != nil {
		t.Fatalf("second Populate: %v", err)
	}
	if res2.Relationships != 0 {
		t.Errorf("second run created %d relationships, want 0", res2.Relationships)
	}
}
