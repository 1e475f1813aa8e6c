package lang

// Ruby's require is an ordinary method call, not a dedicated grammar node,
// so imports are not extracted.
func init() {
	Register(&LanguageSpec{
		Language:          Ruby,
		FileExtensions:    []string{".rb"},
		FunctionNodeTypes: []string{"method", "singleton_method"},
		ClassNodeTypes:    []string{"class", "module"},
		CommentNodeTypes:  []string{"comment"},
		PackageIndicators: []string{"Gemfile"},
	})
}
