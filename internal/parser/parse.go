package parser

import (
	"bytes"
	"path/filepath"

	"github.com/marctjones/idlergear/internal/lang"
)

// Symbol is one extracted definition: a function, class or method.
type Symbol struct {
	Name      string
	Kind      string // "function", "class" or "method"
	StartLine int    // 1-based
	EndLine   int
	Docstring string
	Code      string // exact source slice by byte offset
}

// Import is one import statement.
type Import struct {
	Module string
	Line   int
}

// Comment is one source comment.
type Comment struct {
	Text string
	Line int
}

// FileParse is the result of parsing one file.
type FileParse struct {
	Language lang.Language
	Symbols  []Symbol
	Imports  []Import
	Comments []Comment
}

// ParseFile parses a single source file. Unsupported extensions, binary
// content and parse failures all yield nil — a file that cannot be parsed is
// skipped, never an error out of this package.
func ParseFile(path string, source []byte) *FileParse {
	spec := lang.ForExtension(filepath.Ext(path))
	if spec == nil {
		return nil
	}
	if isBinary(source) {
		return nil
	}

	if spec.Native {
		return parseGoFile(path, source)
	}

	tree, err := Parse(spec.Language, source)
	if err != nil {
		return nil
	}
	defer tree.Close()

	fp := &FileParse{Language: spec.Language}
	extract(tree.RootNode(), source, spec, fp)
	return fp
}

// isBinary reports whether content looks like binary data (NUL byte in the
// first 8000 bytes, the same heuristic git uses).
func isBinary(content []byte) bool {
	probe := content
	if len(probe) > 8000 {
		probe = probe[:8000]
	}
	return bytes.IndexByte(probe, 0) >= 0
}
