package index

import (
	"context"
	"testing"

	"github.com/marctjones/idlergear/internal/store"
)

func TestTestFramework(t *testing.T) {
	tests := []struct {
		path, language, want string
	}{
		{"internal/store/store_test.go", "go", "go_test"},
		{"internal/store/store.go", "go", ""},
		{"tests/test_auth.py", "python", "pytest"},
		{"src/auth_test.py", "python", "pytest"},
		{"src/auth.py", "python", ""},
		{"src/Button.test.tsx", "tsx", "jest"},
		{"src/__tests__/Button.tsx", "tsx", "jest"},
		{"src/api.spec.ts", "typescript", "jest"},
		{"tests/integration.rs", "rust", "cargo_test"},
		{"src/lib.rs", "rust", ""},
		{"src/AuthServiceTest.java", "java", "junit"},
		{"src/AuthService.java", "java", ""},
	}
	for _, tt := range tests {
		if got := testFramework(tt.path, tt.language); got != tt.want {
			t.Errorf("testFramework(%q, %q) = %q, want %q", tt.path, tt.language, got, tt.want)
		}
	}
}

func TestIsTestCaseName(t *testing.T) {
	tests := []struct {
		name, kind, language string
		want                 bool
	}{
		{"TestUpsert", "function", "go", true},
		{"BenchmarkUpsert", "function", "go", true},
		{"helperThing", "function", "go", false},
		{"TestUpsert", "method", "go", false},
		{"test_login", "function", "python", true},
		{"TestLogin", "class", "python", true},
		{"Helper", "class", "python", false},
		{"test_roundtrip", "function", "rust", true},
		{"testParsesInput", "method", "java", true},
		{"shouldReject", "method", "java", true},
	}
	for _, tt := range tests {
		if got := isTestCaseName(tt.name, tt.kind, tt.language); got != tt.want {
			t.Errorf("isTestCaseName(%q, %q, %q) = %v, want %v", tt.name, tt.kind, tt.language, got, tt.want)
		}
	}
}

func TestJestCaseRe(t *testing.T) {
	source := `describe('button', () => {
  it('renders the label', () => {});
  test("fires onClick", () => {});
  it.skip('is flaky', () => {});
});`
	var cases []string
	for _, m := range jestCaseRe.FindAllStringSubmatch(source, -1) {
		cases = append(cases, m[1])
	}
	want := []string{"renders the label", "fires onClick", "is flaky"}
	if len(cases) != len(want) {
		t.Fatalf("cases = %v, want %v", cases, want)
	}
	for i := range want {
		if cases[i] != want[i] {
			t.Errorf("case[%d] = %q, want %q", i, cases[i], want[i])
		}
	}
}

func TestUnittestCasesTaggedSeparately(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.UpsertNode(&store.Node{
		Label: "File", Key: store.FileKey("test_models.py"), Name: "test_models.py", FilePath: "test_models.py",
		Properties: map[string]any{"language": "python", "exists": true},
	}); err != nil {
		t.Fatalf("upsert file: %v", err)
	}
	symbols := []struct {
		name, kind string
		line       int
	}{
		{"TestModels", "class", 3},
		{"test_save", "method", 4},
		{"test_helper", "function", 10},
	}
	for _, sym := range symbols {
		if _, err := s.UpsertNode(&store.Node{
			Label: "Symbol", Key: store.SymbolKey("test_models.py", sym.line, sym.name),
			Name: sym.name, FilePath: "test_models.py", StartLine: sym.line,
			Properties: map[string]any{"kind": sym.kind},
		}); err != nil {
			t.Fatalf("upsert symbol %s: %v", sym.name, err)
		}
	}

	p := &Tests{Store: s}
	if _, err := p.Populate(context.Background(), &Options{RepoPath: t.TempDir(), Config: defaultTestConfig()}); err != nil {
		t.Fatalf("Populate: %v", err)
	}

	for name, want := range map[string]string{
		"TestModels":  "unittest",
		"test_save":   "unittest",
		"test_helper": "pytest",
	} {
		node, _ := s.FindNodeByKey("Test", store.TestKey("test_models.py", name))
		if node == nil {
			t.Fatalf("test node %s missing", name)
		}
		if node.Properties["framework"] != want {
			t.Errorf("%s framework = %v, want %s", name, node.Properties["framework"], want)
		}
	}
}

func TestTestsPopulatorCoversInference(t *testing.T) {
	s := newTestStore(t)

	authID, err := s.UpsertNode(&store.Node{
		Label: "File", Key: store.FileKey("src/auth.py"), Name: "auth.py", FilePath: "src/auth.py",
		Properties: map[string]any{"language": "python", "exists": true},
	})
	if err != nil {
		t.Fatalf("upsert auth.py: %v", err)
	}
	if _, err := s.UpsertNode(&store.Node{
		Label: "File", Key: store.FileKey("src/test_auth.py"), Name: "test_auth.py", FilePath: "src/test_auth.py",
		Properties: map[string]any{"language": "python", "exists": true},
	}); err != nil {
		t.Fatalf("upsert test_auth.py: %v", err)
	}
	if _, err := s.UpsertNode(&store.Node{
		Label: "Symbol", Key: store.SymbolKey("src/test_auth.py", 3, "test_login"),
		Name: "test_login", FilePath: "src/test_auth.py", StartLine: 3,
		Properties: map[string]any{"kind": "function"},
	}); err != nil {
		t.Fatalf("upsert symbol: %v", err)
	}

	p := &Tests{Store: s}
	res, err := p.Populate(context.Background(), &Options{RepoPath: t.TempDir(), Config: defaultTestConfig()})
	if err != nil {
		t.Fatalf("Populate: %v", err)
	}
	if res.Created != 1 {
		t.Errorf("created = %d, want 1 test node", res.Created)
	}
	if res.Relationships != 1 {
		t.Errorf("relationships = %d, want 1 COVERS edge", res.Relationships)
	}

	testNode, err := s.FindNodeByKey("Test", store.TestKey("src/test_auth.py", "test_login"))
	if err != nil || testNode == nil {
		t.Fatalf("test node missing: %v", err)
	}
	if testNode.Properties["framework"] != "pytest" {
		t.Errorf("framework = %v", testNode.Properties["framework"])
	}
	has, _ := s.HasEdge(testNode.ID, authID, "COVERS")
	if !has {
		t.Error("missing COVERS edge to src/auth.py")
	}

	// Idempotent: second run nets nothing new.
	res2, err := p.Populate(context.Background(), &Options{RepoPath: t.TempDir(), Config: defaultTestConfig()})
	if err != nil {
		t.Fatalf("second Populate: %v", err)
	}
	if res2.Created != 0 || res2.Relationships != 0 {
		t.Errorf("second run created=%d relationships=%d, want 0/0", res2.Created, res2.Relationships)
	}
}
