package lang

func init() {
	Register(&LanguageSpec{
		Language:          CPP,
		FileExtensions:    []string{".cpp", ".cc", ".cxx", ".hpp", ".hh"},
		FunctionNodeTypes: []string{"function_definition"},
		ClassNodeTypes:    []string{"class_specifier"},
		ImportNodeTypes:   []string{"preproc_include"},
		CommentNodeTypes:  []string{"comment"},
	})
}
