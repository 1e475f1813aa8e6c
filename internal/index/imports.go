package index

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/marctjones/idlergear/internal/lang"
)

// resolveImport maps an import statement's module string to a repo-relative
// file path, returning ok=false when no candidate exists on disk. This is a
// naming-convention heuristic, not a real module-resolution algorithm — the
// candidate order below is part of the graph's observable behavior and must
// not be "improved" casually:
//  1. module as a sibling file of the importer
//  2. module as a package __init__.py
//  3. module under a configured project source root
//  4. dotted path converted to nested directories (covered by the slash
//     conversion applied before the candidates are tried)
func resolveImport(repoPath, fromRel, module string, language lang.Language, sourceRoots []string) (string, bool) {
	module = strings.TrimSpace(module)
	if module == "" {
		return "", false
	}

	spec := lang.ForLanguage(language)
	if spec == nil {
		return "", false
	}

	// Normalize: dotted paths become nested directories, explicit relative
	// prefixes resolve against the importing file's directory.
	fromDir := filepath.Dir(fromRel)
	rel := module
	if language == lang.Python {
		rel = strings.ReplaceAll(strings.TrimLeft(module, "."), ".", "/")
	}
	rel = strings.TrimPrefix(rel, "./")

	var candidates []string
	for _, ext := range spec.FileExtensions {
		// Import already names the file, extension included.
		if strings.HasSuffix(rel, ext) {
			candidates = append(candidates, joinRel(fromDir, rel), rel)
			for _, root := range sourceRoots {
				candidates = append(candidates, joinRel(root, rel))
			}
		}
		// 1. sibling of the importer
		candidates = append(candidates, joinRel(fromDir, rel+ext))
		// 3./4. under the project root and configured source roots
		candidates = append(candidates, rel+ext)
		for _, root := range sourceRoots {
			candidates = append(candidates, joinRel(root, rel+ext))
		}
	}
	// 2. importable package marker (Python's __init__.py). Manifest-style
	// indicators like package.json are not source files and don't qualify.
	for _, ind := range spec.PackageIndicators {
		if !importableIndicator(ind, spec.FileExtensions) {
			continue
		}
		candidates = append(candidates,
			joinRel(fromDir, rel+"/"+ind),
			rel+"/"+ind)
		for _, root := range sourceRoots {
			candidates = append(candidates, joinRel(root, rel+"/"+ind))
		}
	}

	for _, cand := range candidates {
		cand = filepath.ToSlash(filepath.Clean(cand))
		if cand == "" || cand == "." || strings.HasPrefix(cand, "..") {
			continue
		}
		if cand == fromRel {
			continue // self-import resolution is always wrong
		}
		if _, err := os.Stat(filepath.Join(repoPath, filepath.FromSlash(cand))); err == nil {
			return cand, true
		}
	}
	return "", false
}

func importableIndicator(indicator string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(indicator, ext) {
			return true
		}
	}
	return false
}

func joinRel(dir, rest string) string {
	if dir == "." || dir == "" {
		return rest
	}
	return dir + "/" + rest
}
