package index

import (
	"testing"

	"github.com/marctjones/idlergear/internal/lang"
)

func TestResolveImport(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{
		"src/app.py",
		"src/util.py",
		"src/pkg/__init__.py",
		"src/pkg/inner.py",
		"lib/shared.py",
		"web/index.js",
		"web/helper.js",
	} {
		writeFile(t, root, rel, "x = 1\n")
	}
	roots := []string{"src", "lib"}

	tests := []struct {
		from, module string
		language     lang.Language
		want         string
		ok           bool
	}{
		// sibling file
		{"src/app.py", "util", lang.Python, "src/util.py", true},
		// package __init__.py
		{"src/app.py", "pkg", lang.Python, "src/pkg/__init__.py", true},
		// dotted path to nested module
		{"src/app.py", "pkg.inner", lang.Python, "src/pkg/inner.py", true},
		// source-root lookup from outside the root
		{"tools/gen.py", "shared", lang.Python, "lib/shared.py", true},
		// explicit relative js import
		{"web/index.js", "./helper.js", lang.JavaScript, "web/helper.js", true},
		// external module: no candidate on disk
		{"src/app.py", "flask", lang.Python, "", false},
		// self import never resolves
		{"src/app.py", "app", lang.Python, "", false},
		// escaping the repo is refused
		{"src/app.py", "../../etc/passwd", lang.Python, "", false},
	}
	for _, tt := range tests {
		got, ok := resolveImport(root, tt.from, tt.module, tt.language, roots)
		if ok != tt.ok || got != tt.want {
			t.Errorf("resolveImport(%q, %q) = %q, %v; want %q, %v",
				tt.from, tt.module, got, ok, tt.want, tt.ok)
		}
	}
}
