package store

import (
	"fmt"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Initialize(false); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return s
}

func TestOpenMemory(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	s.Close()
}

func TestNodeCRUD(t *testing.T) {
	s := newTestStore(t)

	n := &Node{
		Label:      "File",
		Key:        FileKey("src/app.py"),
		Name:       "app.py",
		FilePath:   "src/app.py",
		Properties: map[string]any{"language": "python", "exists": true},
	}
	id, err := s.UpsertNode(n)
	if err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero id")
	}

	found, err := s.FindNodeByKey("File", FileKey("src/app.py"))
	if err != nil {
		t.Fatalf("FindNodeByKey: %v", err)
	}
	if found == nil {
		t.Fatal("expected node, got nil")
	}
	if found.Name != "app.py" {
		t.Errorf("expected app.py, got %s", found.Name)
	}
	if found.Properties["language"] != "python" {
		t.Errorf("unexpected language: %v", found.Properties["language"])
	}

	missing, err := s.FindNodeByKey("File", FileKey("nope.py"))
	if err != nil {
		t.Fatalf("FindNodeByKey(missing): %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for absent node")
	}
}

func TestUpsertNodeIdempotent(t *testing.T) {
	s := newTestStore(t)

	n := &Node{
		Label:      "Task",
		Key:        TaskKey(7),
		Name:       "Fix login bug",
		Properties: map[string]any{"state": "open"},
	}
	id1, err := s.UpsertNode(n)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	n.Properties["state"] = "closed"
	id2, err := s.UpsertNode(n)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if id1 != id2 {
		t.Errorf("upsert changed id: %d vs %d", id1, id2)
	}

	count, err := s.CountNodes()
	if err != nil {
		t.Fatalf("CountNodes: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 node, got %d", count)
	}

	found, _ := s.FindNodeByKey("Task", TaskKey(7))
	if found.Properties["state"] != "closed" {
		t.Errorf("upsert did not refresh properties: %v", found.Properties["state"])
	}
}

func TestUpsertNodeIDStableAcrossInserts(t *testing.T) {
	s := newTestStore(t)

	aID, err := s.UpsertNode(&Node{Label: "File", Key: FileKey("a.py"), Name: "a.py", FilePath: "a.py"})
	if err != nil {
		t.Fatalf("upsert a: %v", err)
	}
	bID, err := s.UpsertNode(&Node{Label: "File", Key: FileKey("b.py"), Name: "b.py", FilePath: "b.py"})
	if err != nil {
		t.Fatalf("upsert b: %v", err)
	}
	if aID == bID {
		t.Fatalf("distinct nodes share id %d", aID)
	}

	// The conflict-update path must report a's own row, not the
	// connection's last insert (b).
	again, err := s.UpsertNode(&Node{Label: "File", Key: FileKey("a.py"), Name: "a.py", FilePath: "a.py"})
	if err != nil {
		t.Fatalf("re-upsert a: %v", err)
	}
	if again != aID {
		t.Errorf("re-upsert of a returned id %d, want %d", again, aID)
	}
}

func TestUpsertNodeBatch(t *testing.T) {
	s := newTestStore(t)

	var nodes []*Node
	for i := 0; i < 300; i++ {
		nodes = append(nodes, &Node{
			Label:     "Symbol",
			Key:       SymbolKey("big.py", i+1, fmt.Sprintf("fn_%d", i)),
			Name:      fmt.Sprintf("fn_%d", i),
			FilePath:  "big.py",
			StartLine: i + 1,
		})
	}
	idMap, err := s.UpsertNodeBatch(nodes)
	if err != nil {
		t.Fatalf("UpsertNodeBatch: %v", err)
	}
	if len(idMap) != 300 {
		t.Fatalf("expected 300 ids, got %d", len(idMap))
	}

	// Re-running the same batch must not create new rows.
	if _, err := s.UpsertNodeBatch(nodes); err != nil {
		t.Fatalf("second batch: %v", err)
	}
	count, _ := s.CountNodesByLabel("Symbol")
	if count != 300 {
		t.Errorf("expected 300 symbols after rerun, got %d", count)
	}
}

func TestEdges(t *testing.T) {
	s := newTestStore(t)

	fileID, _ := s.UpsertNode(&Node{Label: "File", Key: FileKey("a.py"), Name: "a.py", FilePath: "a.py"})
	symID, _ := s.UpsertNode(&Node{Label: "Symbol", Key: SymbolKey("a.py", 1, "f"), Name: "f", FilePath: "a.py"})

	if _, err := s.InsertEdge(&Edge{SourceID: fileID, TargetID: symID, Type: "CONTAINS"}); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}
	// Duplicate insert updates in place.
	if _, err := s.InsertEdge(&Edge{SourceID: fileID, TargetID: symID, Type: "CONTAINS", Properties: map[string]any{"n": 1}}); err != nil {
		t.Fatalf("duplicate InsertEdge: %v", err)
	}
	count, _ := s.CountEdges()
	if count != 1 {
		t.Errorf("expected 1 edge, got %d", count)
	}

	has, err := s.HasEdge(fileID, symID, "CONTAINS")
	if err != nil {
		t.Fatalf("HasEdge: %v", err)
	}
	if !has {
		t.Error("expected edge to exist")
	}

	edges, err := s.FindEdgesBySourceAndType(fileID, "CONTAINS")
	if err != nil {
		t.Fatalf("FindEdgesBySourceAndType: %v", err)
	}
	if len(edges) != 1 || edges[0].TargetID != symID {
		t.Errorf("unexpected edges: %+v", edges)
	}
}

func TestSearchNodesByName(t *testing.T) {
	s := newTestStore(t)

	for i, name := range []string{"handleLogin", "HandleLogout", "parseConfig"} {
		if _, err := s.UpsertNode(&Node{
			Label: "Symbol",
			Key:   SymbolKey("x.py", i+1, name),
			Name:  name, FilePath: "x.py", StartLine: i + 1,
		}); err != nil {
			t.Fatalf("UpsertNode: %v", err)
		}
	}

	got, err := s.SearchNodesByName("Symbol", "handle", 0)
	if err != nil {
		t.Fatalf("SearchNodesByName: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 case-insensitive matches, got %d", len(got))
	}
}

func TestBFS(t *testing.T) {
	s := newTestStore(t)

	// a -> b -> c, plus d importing a.
	ids := map[string]int64{}
	for _, name := range []string{"a.py", "b.py", "c.py", "d.py"} {
		id, err := s.UpsertNode(&Node{Label: "File", Key: FileKey(name), Name: name, FilePath: name})
		if err != nil {
			t.Fatalf("UpsertNode: %v", err)
		}
		ids[name] = id
	}
	for _, pair := range [][2]string{{"a.py", "b.py"}, {"b.py", "c.py"}, {"d.py", "a.py"}} {
		if _, err := s.InsertEdge(&Edge{SourceID: ids[pair[0]], TargetID: ids[pair[1]], Type: "IMPORTS"}); err != nil {
			t.Fatalf("InsertEdge: %v", err)
		}
	}

	out, err := s.BFS(ids["a.py"], "outbound", []string{"IMPORTS"}, 2, 0)
	if err != nil {
		t.Fatalf("BFS outbound: %v", err)
	}
	if len(out.Visited) != 2 {
		t.Fatalf("expected b and c, got %d nodes", len(out.Visited))
	}

	// depth 1 stops before c
	out, _ = s.BFS(ids["a.py"], "outbound", []string{"IMPORTS"}, 1, 0)
	if len(out.Visited) != 1 || out.Visited[0].Node.FilePath != "b.py" {
		t.Errorf("depth-1 BFS wrong: %+v", out.Visited)
	}

	in, err := s.BFS(ids["a.py"], "inbound", []string{"IMPORTS"}, 2, 0)
	if err != nil {
		t.Fatalf("BFS inbound: %v", err)
	}
	if len(in.Visited) != 1 || in.Visited[0].Node.FilePath != "d.py" {
		t.Errorf("inbound BFS wrong: %+v", in.Visited)
	}
}

func TestGetSchemaInfo(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.UpsertNode(&Node{Label: "File", Key: FileKey("a.py"), Name: "a.py", FilePath: "a.py"}); err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}
	info, err := s.GetSchemaInfo()
	if err != nil {
		t.Fatalf("GetSchemaInfo: %v", err)
	}
	if info.Nodes["File"] != 1 {
		t.Errorf("expected File count 1, got %d", info.Nodes["File"])
	}
	// Zero-count labels and edge types are still present.
	if _, ok := info.Nodes["Person"]; !ok {
		t.Error("expected Person label in schema info")
	}
	if _, ok := info.Edges["COVERS"]; !ok {
		t.Error("expected COVERS type in schema info")
	}
}

func TestInitializeDropExisting(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.UpsertNode(&Node{Label: "File", Key: FileKey("a.py"), Name: "a.py", FilePath: "a.py"}); err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}
	if err := s.Initialize(true); err != nil {
		t.Fatalf("Initialize(drop): %v", err)
	}
	count, _ := s.CountNodes()
	if count != 0 {
		t.Errorf("expected empty store after drop, got %d nodes", count)
	}
}

func TestWithTransaction(t *testing.T) {
	s := newTestStore(t)

	err := s.WithTransaction(func(tx *Store) error {
		if _, err := tx.UpsertNode(&Node{Label: "File", Key: FileKey("a.py"), Name: "a.py", FilePath: "a.py"}); err != nil {
			return err
		}
		return fmt.Errorf("boom")
	})
	if err == nil {
		t.Fatal("expected error from transaction fn")
	}
	count, _ := s.CountNodes()
	if count != 0 {
		t.Errorf("rolled-back write visible: %d nodes", count)
	}
}
