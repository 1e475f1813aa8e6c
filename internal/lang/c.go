package lang

// struct_specifier is deliberately not a class node type: it appears at
// every `struct foo` usage site, not just definitions.
func init() {
	Register(&LanguageSpec{
		Language:          C,
		FileExtensions:    []string{".c", ".h"},
		FunctionNodeTypes: []string{"function_definition"},
		ImportNodeTypes:   []string{"preproc_include"},
		CommentNodeTypes:  []string{"comment"},
	})
}
