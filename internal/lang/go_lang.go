package lang

// Go is parsed with go/parser rather than a tree-sitter grammar, so the
// node-type fields stay empty. The fallback captures top-level declarations
// and methods only — nested function literals are not indexed.
func init() {
	Register(&LanguageSpec{
		Language:          Go,
		FileExtensions:    []string{".go"},
		Native:            true,
		PackageIndicators: []string{"go.mod"},
	})
}
