package index

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/marctjones/idlergear/internal/store"
)

// Tests finds test files among the indexed Files, records a Test node per
// test case, and infers COVERS edges by matching the test file's name back
// to the file it exercises. The inference is name-based only — no call-graph
// analysis — so a test whose name does not echo its subject gets no edge.
type Tests struct {
	Store *store.Store
}

func (p *Tests) Name() string { return "tests" }

// jestCaseRe matches the jest/vitest registration calls; cases there are
// string arguments, not named functions, so symbols don't capture them.
var jestCaseRe = regexp.MustCompile(`(?m)^\s*(?:it|test)(?:\.(?:only|skip|each))?\(\s*['"` + "`" + `]([^'"` + "`" + `]+)`)

// testFramework classifies a file as a test file by path convention.
// Returns "" for non-test files.
func testFramework(relPath, language string) string {
	base := filepath.Base(relPath)
	switch language {
	case "go":
		if strings.HasSuffix(base, "_test.go") {
			return "go_test"
		}
	case "python":
		if strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py") {
			return "pytest"
		}
	case "javascript", "typescript", "tsx":
		if strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") ||
			strings.Contains(relPath, "__tests__/") {
			return "jest"
		}
	case "rust":
		if strings.HasPrefix(relPath, "tests/") || strings.Contains(relPath, "/tests/") ||
			strings.HasSuffix(base, "_test.rs") {
			return "cargo_test"
		}
	case "java":
		name := strings.TrimSuffix(base, ".java")
		if strings.HasSuffix(name, "Test") || strings.HasSuffix(name, "Tests") {
			return "junit"
		}
	}
	return ""
}

func (p *Tests) Populate(ctx context.Context, opts *Options) (*Result, error) {
	res := &Result{}

	files, err := p.Store.FindNodesByLabel("File")
	if err != nil {
		return res, err
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if exists, _ := file.Properties["exists"].(bool); !exists {
			continue
		}
		language, _ := file.Properties["language"].(string)
		framework := testFramework(file.FilePath, language)
		if framework == "" {
			continue
		}

		cases, err := p.testCases(opts, file, language)
		if err != nil {
			res.addErr(file.FilePath, err)
			continue
		}
		if len(cases) == 0 {
			continue
		}

		covered, err := p.coveredFile(file.FilePath, language)
		if err != nil {
			return res, err
		}

		for _, tc := range cases {
			fw := framework
			if tc.Framework != "" {
				fw = tc.Framework
			}
			key := store.TestKey(file.FilePath, tc.Name)
			existing, err := p.Store.NodeExists("Test", key)
			if err != nil {
				return res, err
			}
			testID, err := p.Store.UpsertNode(&store.Node{
				Label:     "Test",
				Key:       key,
				Name:      tc.Name,
				FilePath:  file.FilePath,
				StartLine: tc.StartLine,
				EndLine:   tc.EndLine,
				Properties: map[string]any{
					"framework": fw,
				},
			})
			if err != nil {
				return res, err
			}
			if existing {
				res.Updated++
			} else {
				res.Created++
			}

			if covered == nil {
				continue
			}
			has, err := p.Store.HasEdge(testID, covered.ID, "COVERS")
			if err != nil {
				return res, err
			}
			if !has {
				if _, err := p.Store.InsertEdge(&store.Edge{
					SourceID: testID, TargetID: covered.ID, Type: "COVERS",
				}); err != nil {
					res.addErr(key, err)
					continue
				}
				res.Relationships++
			}
		}
	}
	return res, nil
}

type testCase struct {
	Name      string
	StartLine int
	EndLine   int
	Framework string // overrides the file-level framework when set
}

// testCases names the cases in one test file. Function-style frameworks come
// straight from the Symbol nodes the symbol populator already produced; jest
// needs a source scan because its cases are call arguments.
func (p *Tests) testCases(opts *Options, file *store.Node, language string) ([]testCase, error) {
	if language == "javascript" || language == "typescript" || language == "tsx" {
		content, err := os.ReadFile(filepath.Join(opts.RepoPath, filepath.FromSlash(file.FilePath)))
		if err != nil {
			return nil, err
		}
		var cases []testCase
		text := string(content)
		for _, m := range jestCaseRe.FindAllStringSubmatchIndex(text, -1) {
			line := 1 + strings.Count(text[:m[0]], "\n")
			cases = append(cases, testCase{Name: text[m[2]:m[3]], StartLine: line, EndLine: line})
		}
		return cases, nil
	}

	symbols, err := p.Store.FindNodesByFile("Symbol", file.FilePath)
	if err != nil {
		return nil, err
	}
	var cases []testCase
	for _, sym := range symbols {
		kind, _ := sym.Properties["kind"].(string)
		if !isTestCaseName(sym.Name, kind, language) {
			continue
		}
		tc := testCase{Name: sym.Name, StartLine: sym.StartLine, EndLine: sym.EndLine}
		// Class-method convention is unittest, bare functions are pytest.
		if language == "python" && kind != "function" {
			tc.Framework = "unittest"
		}
		cases = append(cases, tc)
	}
	return cases, nil
}

func isTestCaseName(name, kind, language string) bool {
	switch language {
	case "go":
		return kind == "function" &&
			(strings.HasPrefix(name, "Test") || strings.HasPrefix(name, "Benchmark") || strings.HasPrefix(name, "Fuzz"))
	case "python":
		// pytest functions plus unittest.TestCase methods and classes.
		if kind == "class" {
			return strings.HasPrefix(name, "Test")
		}
		return strings.HasPrefix(name, "test_") || strings.HasPrefix(name, "test")
	case "rust":
		return kind == "function" && strings.HasPrefix(name, "test_")
	case "java":
		return kind == "method" && (strings.HasPrefix(name, "test") || strings.HasPrefix(name, "should"))
	}
	return false
}

// coveredFile maps a test file path back to the file it most plausibly
// exercises: strip the test fragments from the base name, then look for a
// same-language sibling, then any file with the stripped base name.
func (p *Tests) coveredFile(testPath, language string) (*store.Node, error) {
	base := filepath.Base(testPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	stem = strings.TrimSuffix(stem, "_test")
	stem = strings.TrimPrefix(stem, "test_")
	stem = strings.TrimSuffix(stem, ".test")
	stem = strings.TrimSuffix(stem, ".spec")
	stem = strings.TrimSuffix(stem, "Tests")
	stem = strings.TrimSuffix(stem, "Test")
	if stem == "" || stem+ext == base {
		return nil, nil
	}

	// Same directory first; jest files often live in a __tests__/ sibling.
	dir := filepath.ToSlash(filepath.Dir(testPath))
	candidates := []string{joinRel(dir, stem+ext)}
	if strings.HasSuffix(dir, "__tests__") {
		candidates = append(candidates, joinRel(filepath.ToSlash(filepath.Dir(dir)), stem+ext))
	}
	for _, cand := range candidates {
		n, err := p.Store.FindNodeByKey("File", store.FileKey(cand))
		if err != nil {
			return nil, err
		}
		if n != nil {
			return n, nil
		}
	}

	// Fall back to a unique name match anywhere in the repo.
	matches, err := p.Store.FindNodesByName("File", stem+ext)
	if err != nil {
		return nil, err
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	return nil, nil
}
