package lang

func init() {
	Register(&LanguageSpec{
		Language:          JavaScript,
		FileExtensions:    []string{".js", ".jsx", ".mjs", ".cjs"},
		FunctionNodeTypes: []string{"function_declaration", "generator_function_declaration", "method_definition"},
		ClassNodeTypes:    []string{"class_declaration"},
		ImportNodeTypes:   []string{"import_statement"},
		CommentNodeTypes:  []string{"comment"},
		PackageIndicators: []string{"package.json"},
	})
}
