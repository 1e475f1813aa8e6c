package parser

import (
	"go/ast"
	goparser "go/parser"
	"go/token"
	"strings"

	"github.com/marctjones/idlergear/internal/lang"
)

// parseGoFile is the native-AST fallback for the host language. It walks only
// the file's top-level declarations: functions, methods (receivers are
// top-level declarations in Go) and type declarations. Function literals
// nested inside bodies are intentionally not captured — the same depth
// restriction the generic parser does not have, kept as a documented
// asymmetry rather than papered over.
func parseGoFile(path string, source []byte) *FileParse {
	fset := token.NewFileSet()
	file, err := goparser.ParseFile(fset, path, source, goparser.ParseComments)
	if err != nil {
		return nil
	}

	fp := &FileParse{Language: lang.Go}

	for _, imp := range file.Imports {
		fp.Imports = append(fp.Imports, Import{
			Module: strings.Trim(imp.Path.Value, `"`),
			Line:   fset.Position(imp.Pos()).Line,
		})
	}

	for _, cg := range file.Comments {
		fp.Comments = append(fp.Comments, Comment{
			Text: strings.TrimSpace(cg.Text()),
			Line: fset.Position(cg.Pos()).Line,
		})
	}

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			kind := "function"
			if d.Recv != nil {
				kind = "method"
			}
			fp.Symbols = append(fp.Symbols, Symbol{
				Name:      d.Name.Name,
				Kind:      kind,
				StartLine: fset.Position(d.Pos()).Line,
				EndLine:   fset.Position(d.End()).Line,
				Docstring: strings.TrimSpace(d.Doc.Text()),
				Code:      sliceSource(source, fset, d.Pos(), d.End()),
			})
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				doc := ts.Doc.Text()
				if doc == "" {
					doc = d.Doc.Text()
				}
				fp.Symbols = append(fp.Symbols, Symbol{
					Name:      ts.Name.Name,
					Kind:      "class",
					StartLine: fset.Position(ts.Pos()).Line,
					EndLine:   fset.Position(ts.End()).Line,
					Docstring: strings.TrimSpace(doc),
					Code:      sliceSource(source, fset, ts.Pos(), ts.End()),
				})
			}
		}
	}
	return fp
}

// sliceSource returns the exact source text between two token positions.
func sliceSource(source []byte, fset *token.FileSet, from, to token.Pos) string {
	start := fset.Position(from).Offset
	end := fset.Position(to).Offset
	if start < 0 || end > len(source) || start > end {
		return ""
	}
	return string(source[start:end])
}
