package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/marctjones/idlergear/internal/lang"
)

// extract walks a parse tree and collects symbols, imports and comments
// according to the language's node-type spec. Functions found inside a class
// body are recorded as methods.
func extract(root *tree_sitter.Node, source []byte, spec *lang.LanguageSpec, fp *FileParse) {
	var walk func(n *tree_sitter.Node, classDepth int)
	walk = func(n *tree_sitter.Node, classDepth int) {
		kind := n.Kind()
		childDepth := classDepth

		switch {
		case inSet(kind, spec.ClassNodeTypes):
			fp.Symbols = append(fp.Symbols, makeSymbol(n, source, spec, "class"))
			childDepth++
		case inSet(kind, spec.FunctionNodeTypes):
			symKind := "function"
			if classDepth > 0 || kind == "method_definition" {
				symKind = "method"
			}
			fp.Symbols = append(fp.Symbols, makeSymbol(n, source, spec, symKind))
		case inSet(kind, spec.ImportNodeTypes) || inSet(kind, spec.ImportFromTypes):
			if mod := importModule(n, source); mod != "" {
				fp.Imports = append(fp.Imports, Import{
					Module: mod,
					Line:   int(n.StartPosition().Row) + 1,
				})
			}
			return // no symbols inside an import statement
		case inSet(kind, spec.CommentNodeTypes):
			fp.Comments = append(fp.Comments, Comment{
				Text: NodeText(n, source),
				Line: int(n.StartPosition().Row) + 1,
			})
			return
		}

		for i := uint(0); i < n.NamedChildCount(); i++ {
			if child := n.NamedChild(i); child != nil {
				walk(child, childDepth)
			}
		}
	}
	walk(root, 0)
}

func makeSymbol(n *tree_sitter.Node, source []byte, spec *lang.LanguageSpec, kind string) Symbol {
	return Symbol{
		Name:      symbolName(n, source),
		Kind:      kind,
		StartLine: int(n.StartPosition().Row) + 1,
		EndLine:   int(n.EndPosition().Row) + 1,
		Docstring: docstring(n, source, spec),
		Code:      NodeText(n, source),
	}
}

// symbolName returns the identifier of a definition node: the "name" field
// when the grammar provides one, else the first identifier-like named child.
func symbolName(n *tree_sitter.Node, source []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return NodeText(name, source)
	}
	// C-family definitions name the function inside a nested declarator
	// chain (function_declarator, pointer_declarator, ...).
	for decl := n.ChildByFieldName("declarator"); decl != nil; decl = decl.ChildByFieldName("declarator") {
		switch decl.Kind() {
		case "identifier", "field_identifier", "qualified_identifier":
			return NodeText(decl, source)
		}
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "identifier", "type_identifier", "property_identifier", "field_identifier":
			return NodeText(child, source)
		}
	}
	return ""
}

// docstring extracts a Python-style docstring: the first statement of the
// definition body when it is a bare string literal. Languages without the
// convention yield "".
func docstring(n *tree_sitter.Node, source []byte, spec *lang.LanguageSpec) string {
	if spec.Language != lang.Python {
		return ""
	}
	body := n.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first == nil || first.Kind() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str == nil || str.Kind() != "string" {
		return ""
	}
	return strings.Trim(NodeText(str, source), "\"'")
}

// importModule returns the imported module path for an import node.
// Grammars disagree on field names, so the known ones are tried in order
// before falling back to the first named child.
func importModule(n *tree_sitter.Node, source []byte) string {
	for _, field := range []string{"module_name", "source", "argument", "path"} {
		if child := n.ChildByFieldName(field); child != nil {
			return cleanModule(NodeText(child, source))
		}
	}
	if n.NamedChildCount() > 0 {
		child := n.NamedChild(0)
		if child != nil {
			if child.Kind() == "aliased_import" {
				if name := child.ChildByFieldName("name"); name != nil {
					return cleanModule(NodeText(name, source))
				}
			}
			return cleanModule(NodeText(child, source))
		}
	}
	return ""
}

func cleanModule(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, "\"'`")
	return strings.TrimSuffix(text, ";")
}

func inSet(kind string, set []string) bool {
	for _, s := range set {
		if s == kind {
			return true
		}
	}
	return false
}
