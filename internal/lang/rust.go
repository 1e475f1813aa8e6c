package lang

func init() {
	Register(&LanguageSpec{
		Language:          Rust,
		FileExtensions:    []string{".rs"},
		FunctionNodeTypes: []string{"function_item"},
		ClassNodeTypes:    []string{"struct_item", "enum_item", "trait_item"},
		ImportNodeTypes:   []string{"use_declaration"},
		CommentNodeTypes:  []string{"line_comment", "block_comment"},
		PackageIndicators: []string{"Cargo.toml"},
	})
}
