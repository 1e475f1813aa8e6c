package lang

func init() {
	Register(&LanguageSpec{
		Language:          TSX,
		FileExtensions:    []string{".tsx"},
		FunctionNodeTypes: []string{"function_declaration", "generator_function_declaration", "method_definition"},
		ClassNodeTypes:    []string{"class_declaration", "abstract_class_declaration", "interface_declaration"},
		ImportNodeTypes:   []string{"import_statement"},
		CommentNodeTypes:  []string{"comment"},
		PackageIndicators: []string{"package.json", "tsconfig.json"},
	})
}
