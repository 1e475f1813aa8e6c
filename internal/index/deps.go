package index

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"

	"github.com/marctjones/idlergear/internal/store"
)

// Dependencies reads the dependency manifests at the repository root and
// records a Dependency node per declared package, linked from the manifest's
// File node. Only manifests that are actually present are read; a manifest
// that fails to parse contributes an item error, not a populator failure.
type Dependencies struct {
	Store *store.Store
}

func (p *Dependencies) Name() string { return "dependencies" }

// depDecl is one declared dependency as read from a manifest.
type depDecl struct {
	Name    string
	Version string
	Dev     bool
	Line    int // declaration line when the format preserves it, else 0
}

// manifestReaders maps manifest file name to its parse function.
var manifestReaders = map[string]func([]byte) ([]depDecl, error){
	"requirements.txt": parseRequirements,
	"pyproject.toml":   parsePyproject,
	"package.json":     parsePackageJSON,
	"Cargo.toml":       parseCargoToml,
	"go.mod":           parseGoMod,
}

// manifestEcosystems names the package ecosystem each manifest belongs to.
var manifestEcosystems = map[string]string{
	"requirements.txt": "pypi",
	"pyproject.toml":   "pypi",
	"package.json":     "npm",
	"Cargo.toml":       "crates",
	"go.mod":           "go",
}

func (p *Dependencies) Populate(ctx context.Context, opts *Options) (*Result, error) {
	res := &Result{}

	for name, parse := range manifestReaders {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		content, err := os.ReadFile(filepath.Join(opts.RepoPath, name))
		if err != nil {
			continue // manifest absent
		}
		decls, err := parse(content)
		if err != nil {
			res.addErr(name, err)
			continue
		}
		if err := p.writeManifest(opts, name, decls, res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (p *Dependencies) writeManifest(opts *Options, manifest string, decls []depDecl, res *Result) error {
	manifestID, err := ensureFileNode(p.Store, opts.RepoPath, manifest)
	if err != nil {
		return err
	}
	ecosystem := manifestEcosystems[manifest]

	for _, d := range decls {
		key := store.DependencyKey(d.Name)
		existing, err := p.Store.NodeExists("Dependency", key)
		if err != nil {
			return err
		}
		depID, err := p.Store.UpsertNode(&store.Node{
			Label: "Dependency",
			Key:   key,
			Name:  d.Name,
			Properties: map[string]any{
				"version":   d.Version,
				"ecosystem": ecosystem,
				"manifest":  manifest,
				"dev":       d.Dev,
			},
		})
		if err != nil {
			return err
		}
		if existing {
			res.Updated++
		} else {
			res.Created++
		}

		had, err := p.Store.HasEdge(manifestID, depID, "DEPENDS_ON_DEPENDENCY")
		if err != nil {
			return err
		}
		if _, err := p.Store.InsertEdge(&store.Edge{
			SourceID:   manifestID,
			TargetID:   depID,
			Type:       "DEPENDS_ON_DEPENDENCY",
			Properties: map[string]any{"import_line": d.Line},
		}); err != nil {
			res.addErr(manifest+" -> "+d.Name, err)
			continue
		}
		if !had {
			res.Relationships++
		}
	}
	return nil
}

// parseRequirements handles the common subset of the pip requirements
// format: comments, blank lines, version specifiers and environment markers.
// Editable installs and -r includes are skipped.
func parseRequirements(content []byte) ([]depDecl, error) {
	var decls []depDecl
	for i, raw := range strings.Split(string(content), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if idx := strings.Index(line, ";"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		name, version := line, ""
		for _, op := range []string{"==", ">=", "<=", "~=", "!=", ">", "<"} {
			if idx := strings.Index(line, op); idx >= 0 {
				name = strings.TrimSpace(line[:idx])
				version = strings.TrimSpace(line[idx:])
				break
			}
		}
		if idx := strings.Index(name, "["); idx >= 0 {
			name = name[:idx] // extras marker
		}
		if name == "" {
			continue
		}
		decls = append(decls, depDecl{Name: name, Version: version, Line: i + 1})
	}
	return decls, nil
}

// pyprojectFile covers both PEP 621 ([project]) and Poetry
// ([tool.poetry.dependencies]) layouts.
type pyprojectFile struct {
	Project struct {
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies    map[string]any `toml:"dependencies"`
			DevDependencies map[string]any `toml:"dev-dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

func parsePyproject(content []byte) ([]depDecl, error) {
	var pf pyprojectFile
	if err := toml.Unmarshal(content, &pf); err != nil {
		return nil, err
	}

	var decls []depDecl
	for _, spec := range pf.Project.Dependencies {
		reqs, err := parseRequirements([]byte(spec))
		if err != nil || len(reqs) == 0 {
			continue
		}
		reqs[0].Line = 0
		decls = append(decls, reqs[0])
	}
	for name, spec := range pf.Tool.Poetry.Dependencies {
		if strings.EqualFold(name, "python") {
			continue // interpreter constraint, not a package
		}
		decls = append(decls, depDecl{Name: name, Version: tomlVersion(spec)})
	}
	for name, spec := range pf.Tool.Poetry.DevDependencies {
		decls = append(decls, depDecl{Name: name, Version: tomlVersion(spec), Dev: true})
	}
	return decls, nil
}

type cargoFile struct {
	Dependencies    map[string]any `toml:"dependencies"`
	DevDependencies map[string]any `toml:"dev-dependencies"`
}

func parseCargoToml(content []byte) ([]depDecl, error) {
	var cf cargoFile
	if err := toml.Unmarshal(content, &cf); err != nil {
		return nil, err
	}
	var decls []depDecl
	for name, spec := range cf.Dependencies {
		decls = append(decls, depDecl{Name: name, Version: tomlVersion(spec)})
	}
	for name, spec := range cf.DevDependencies {
		decls = append(decls, depDecl{Name: name, Version: tomlVersion(spec), Dev: true})
	}
	return decls, nil
}

// tomlVersion extracts the version from either the string shorthand
// (`serde = "1.0"`) or the table form (`serde = { version = "1.0", ... }`).
func tomlVersion(spec any) string {
	switch v := spec.(type) {
	case string:
		return v
	case map[string]any:
		if s, ok := v["version"].(string); ok {
			return s
		}
	}
	return ""
}

type packageJSONFile struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func parsePackageJSON(content []byte) ([]depDecl, error) {
	var pj packageJSONFile
	if err := json.Unmarshal(content, &pj); err != nil {
		return nil, err
	}
	var decls []depDecl
	for name, version := range pj.Dependencies {
		decls = append(decls, depDecl{Name: name, Version: version})
	}
	for name, version := range pj.DevDependencies {
		decls = append(decls, depDecl{Name: name, Version: version, Dev: true})
	}
	return decls, nil
}

func parseGoMod(content []byte) ([]depDecl, error) {
	mf, err := modfile.ParseLax("go.mod", content, nil)
	if err != nil {
		return nil, err
	}
	var decls []depDecl
	for _, req := range mf.Require {
		if req.Indirect {
			continue // transitive closure would drown the direct deps
		}
		line := 0
		if req.Syntax != nil {
			line = req.Syntax.Start.Line
		}
		decls = append(decls, depDecl{
			Name:    req.Mod.Path,
			Version: req.Mod.Version,
			Line:    line,
		})
	}
	return decls, nil
}
