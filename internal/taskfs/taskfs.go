// Package taskfs reads the task/note/reference/plan records the indexer
// consumes. The storage itself is a plain directory of markdown files with
// YAML frontmatter; populators only ever see the record structs, so a
// different backend (e.g. a GitHub issue mirror) can implement TaskSource
// without touching the graph code.
package taskfs

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// TaskRecord is one task as produced by the task backend.
type TaskRecord struct {
	ID       int64
	Title    string
	Body     string
	State    string // "open" or "closed"
	Priority string
	Labels   []string
	Created  time.Time
	Updated  time.Time
	Closed   time.Time
	Source   string // "local" or "github"
}

// NoteRecord is one free-form note.
type NoteRecord struct {
	ID      int64
	Title   string
	Body    string
	Created time.Time
}

// ReferenceRecord is one reference document (markdown).
type ReferenceRecord struct {
	ID    int64
	Title string
	Path  string // repo-relative path of the markdown file
	Body  string
	Tags  []string
}

// PlanRecord is one named plan with a status.
type PlanRecord struct {
	Name   string
	Status string
	Body   string
}

// TaskSource lists task records, optionally filtered by state ("" for all).
type TaskSource interface {
	List(ctx context.Context, state string) ([]TaskRecord, error)
}

// Dir reads records from <root>/.idlergear/{tasks,notes,refs,plans}.
type Dir struct {
	Root string
}

// NewDir creates a Dir source over a project root.
func NewDir(root string) *Dir {
	return &Dir{Root: root}
}

// frontmatter is the YAML header shared by the record files. Unknown fields
// are ignored so the record format can grow without breaking the reader.
type frontmatter struct {
	ID       int64    `yaml:"id"`
	Title    string   `yaml:"title"`
	Name     string   `yaml:"name"`
	State    string   `yaml:"state"`
	Status   string   `yaml:"status"`
	Priority string   `yaml:"priority"`
	Labels   []string `yaml:"labels"`
	Tags     []string `yaml:"tags"`
	Source   string   `yaml:"source"`
	Created  string   `yaml:"created"`
	Updated  string   `yaml:"updated"`
	Closed   string   `yaml:"closed"`
}

// List implements TaskSource.
func (d *Dir) List(ctx context.Context, state string) ([]TaskRecord, error) {
	paths, err := markdownFiles(filepath.Join(d.Root, ".idlergear", "tasks"))
	if err != nil {
		return nil, nil // no task directory: nothing to list, not an error
	}

	var tasks []TaskRecord
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fm, body, err := readFrontmatter(path)
		if err != nil || fm.ID == 0 {
			continue // malformed record: skipped, never fatal
		}
		t := TaskRecord{
			ID:       fm.ID,
			Title:    fm.Title,
			Body:     body,
			State:    fm.State,
			Priority: fm.Priority,
			Labels:   fm.Labels,
			Created:  parseTime(fm.Created),
			Updated:  parseTime(fm.Updated),
			Closed:   parseTime(fm.Closed),
			Source:   fm.Source,
		}
		if t.State == "" {
			t.State = "open"
		}
		if t.Source == "" {
			t.Source = "local"
		}
		if state != "" && t.State != state {
			continue
		}
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

// ListNotes returns all note records.
func (d *Dir) ListNotes(ctx context.Context) ([]NoteRecord, error) {
	paths, err := markdownFiles(filepath.Join(d.Root, ".idlergear", "notes"))
	if err != nil {
		return nil, nil
	}
	var notes []NoteRecord
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fm, body, err := readFrontmatter(path)
		if err != nil || fm.ID == 0 {
			continue
		}
		notes = append(notes, NoteRecord{
			ID:      fm.ID,
			Title:   fm.Title,
			Body:    body,
			Created: parseTime(fm.Created),
		})
	}
	return notes, nil
}

// ListReferences returns all reference records.
func (d *Dir) ListReferences(ctx context.Context) ([]ReferenceRecord, error) {
	dir := filepath.Join(d.Root, ".idlergear", "refs")
	paths, err := markdownFiles(dir)
	if err != nil {
		return nil, nil
	}
	var refs []ReferenceRecord
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fm, body, err := readFrontmatter(path)
		if err != nil || fm.ID == 0 {
			continue
		}
		rel, _ := filepath.Rel(d.Root, path)
		refs = append(refs, ReferenceRecord{
			ID:    fm.ID,
			Title: fm.Title,
			Path:  filepath.ToSlash(rel),
			Body:  body,
			Tags:  fm.Tags,
		})
	}
	return refs, nil
}

// ListPlans returns all plan records.
func (d *Dir) ListPlans(ctx context.Context) ([]PlanRecord, error) {
	paths, err := markdownFiles(filepath.Join(d.Root, ".idlergear", "plans"))
	if err != nil {
		return nil, nil
	}
	var plans []PlanRecord
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fm, body, err := readFrontmatter(path)
		if err != nil {
			continue
		}
		name := fm.Name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(path), ".md")
		}
		plans = append(plans, PlanRecord{Name: name, Status: fm.Status, Body: body})
	}
	return plans, nil
}

func markdownFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// readFrontmatter splits a markdown file into its YAML header and body.
func readFrontmatter(path string) (*frontmatter, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	fm := &frontmatter{}
	content := string(data)

	if !strings.HasPrefix(content, "---\n") {
		return fm, strings.TrimSpace(content), nil
	}
	rest := content[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return fm, strings.TrimSpace(content), nil
	}
	if err := yaml.Unmarshal([]byte(rest[:end]), fm); err != nil {
		return nil, "", err
	}
	body := rest[end+len("\n---"):]
	body = strings.TrimPrefix(body, "\n")
	return fm, strings.TrimSpace(body), nil
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
