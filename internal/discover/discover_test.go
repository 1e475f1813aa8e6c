package discover

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/marctjones/idlergear/internal/lang"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.py")
	writeFile(t, root, "src/main.go")
	writeFile(t, root, "web/index.ts")
	writeFile(t, root, "README.txt")             // unsupported extension
	writeFile(t, root, "node_modules/dep/x.js")  // ignored dir
	writeFile(t, root, ".idlergear/graph.db.py") // own state dir is never indexed
	writeFile(t, root, "src/cache.pyc")          // ignored suffix

	files, err := Discover(context.Background(), root, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	byRel := map[string]lang.Language{}
	for _, f := range files {
		byRel[f.RelPath] = f.Language
	}
	if len(byRel) != 3 {
		t.Fatalf("expected 3 files, got %d: %v", len(byRel), byRel)
	}
	if byRel["src/app.py"] != lang.Python {
		t.Errorf("app.py language = %q", byRel["src/app.py"])
	}
	if byRel["src/main.go"] != lang.Go {
		t.Errorf("main.go language = %q", byRel["src/main.go"])
	}
	if byRel["web/index.ts"] != lang.TypeScript {
		t.Errorf("index.ts language = %q", byRel["web/index.ts"])
	}
}

func TestDiscoverIgnoreFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.py")
	writeFile(t, root, "generated/schema.py")
	if err := os.WriteFile(filepath.Join(root, ".igignore"), []byte("# generated code\ngenerated\n"), 0o644); err != nil {
		t.Fatalf("write .igignore: %v", err)
	}

	files, err := Discover(context.Background(), root, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "src/app.py" {
		t.Errorf("files = %+v", files)
	}
}

func TestDiscoverExtraPatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.py")
	writeFile(t, root, "migrations/0001.py")

	files, err := Discover(context.Background(), root, &Options{Extra: []string{"migrations"}})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "src/app.py" {
		t.Errorf("files = %+v", files)
	}
}
