package lang

func init() {
	Register(&LanguageSpec{
		Language:          Java,
		FileExtensions:    []string{".java"},
		FunctionNodeTypes: []string{"method_declaration", "constructor_declaration"},
		ClassNodeTypes:    []string{"class_declaration", "interface_declaration", "enum_declaration"},
		ImportNodeTypes:   []string{"import_declaration"},
		CommentNodeTypes:  []string{"line_comment", "block_comment"},
		PackageIndicators: []string{"pom.xml", "build.gradle"},
	})
}
