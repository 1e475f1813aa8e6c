// Package gitcli is the read-only git collaborator: commit log with per-file
// diff stats, blame attribution and branch lookups, all via the git CLI.
// Every subprocess runs under a context timeout — a hung git invocation must
// not hang an indexing run. Output parsing is separated from process
// execution so the parsers are unit-testable without a repository.
package gitcli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds a single git subprocess call.
const DefaultTimeout = 30 * time.Second

// Commit is one commit with its per-file change stats.
type Commit struct {
	Hash        string
	ShortHash   string
	AuthorName  string
	AuthorEmail string
	Timestamp   time.Time
	Message     string
	Files       []FileChange
}

// FileChange is one file touched by a commit.
type FileChange struct {
	Path       string
	Insertions int
	Deletions  int
	Status     string // "added", "modified", "deleted", "renamed"
}

// BlameEntry aggregates blame attribution for one author in one file.
type BlameEntry struct {
	Name  string
	Lines int
}

// Client runs read-only git operations against one repository.
type Client struct {
	RepoPath string
	Timeout  time.Duration
}

// New creates a Client with the default per-call timeout.
func New(repoPath string) *Client {
	return &Client{RepoPath: repoPath, Timeout: DefaultTimeout}
}

// IsRepo reports whether the client's path is inside a git work tree.
func (c *Client) IsRepo() bool {
	if _, err := os.Stat(filepath.Join(c.RepoPath, ".git")); err == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()
	out, err := c.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(string(out)) == "true"
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.RepoPath
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git %s: %w", args[0], err)
	}
	return out, nil
}

// Record and field separators for log parsing. Using control characters
// keeps commit messages containing pipes or tabs unambiguous.
const (
	recSep   = "\x1e"
	fieldSep = "\x1f"
)

// Log returns up to max commits (0 means unbounded), optionally limited by a
// git-parseable since expression, newest first, each with per-file insertion
// and deletion counts and a change status.
func (c *Client) Log(ctx context.Context, max int, since string) ([]Commit, error) {
	args := []string{"log", "--numstat", "--format=" + recSep + "%H" + fieldSep + "%h" + fieldSep + "%an" + fieldSep + "%ae" + fieldSep + "%at" + fieldSep + "%B"}
	if max > 0 {
		args = append(args, fmt.Sprintf("--max-count=%d", max))
	}
	if since != "" {
		args = append(args, "--since="+since)
	}
	out, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	commits := parseLog(out)

	// Second pass for change status letters; numstat alone cannot
	// distinguish an added file from a grown one.
	statusArgs := []string{"log", "--name-status", "--format=" + recSep + "%H"}
	if max > 0 {
		statusArgs = append(statusArgs, fmt.Sprintf("--max-count=%d", max))
	}
	if since != "" {
		statusArgs = append(statusArgs, "--since="+since)
	}
	statusOut, err := c.run(ctx, statusArgs...)
	if err == nil {
		applyStatuses(commits, parseNameStatus(statusOut))
	}
	return commits, nil
}

// parseLog parses `git log --numstat` output into commits.
func parseLog(out []byte) []Commit {
	var commits []Commit
	for _, record := range strings.Split(string(out), recSep) {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		lines := strings.SplitN(record, "\n", 2)
		fields := strings.Split(lines[0], fieldSep)
		if len(fields) < 6 {
			continue
		}
		ts, _ := strconv.ParseInt(fields[4], 10, 64)
		commit := Commit{
			Hash:        fields[0],
			ShortHash:   fields[1],
			AuthorName:  fields[2],
			AuthorEmail: fields[3],
			Timestamp:   time.Unix(ts, 0).UTC(),
			Message:     strings.TrimSpace(fields[5]),
		}

		// %B is multi-line: numstat lines start after the first blank line.
		var body string
		if len(lines) > 1 {
			body = lines[1]
		}
		msgDone := false
		scanner := bufio.NewScanner(strings.NewReader(body))
		for scanner.Scan() {
			line := scanner.Text()
			if !msgDone {
				if fc, ok := parseNumstatLine(line); ok {
					msgDone = true
					commit.Files = append(commit.Files, fc)
				} else {
					// Blank lines are part of the message until numstat
					// starts; paragraph breaks must survive. The final
					// TrimSpace drops the trailing separator blanks.
					commit.Message += "\n" + strings.TrimRight(line, "\r")
				}
				continue
			}
			if fc, ok := parseNumstatLine(line); ok {
				commit.Files = append(commit.Files, fc)
			}
		}
		commit.Message = strings.TrimSpace(commit.Message)
		commits = append(commits, commit)
	}
	return commits
}

// parseNumstatLine parses "12\t3\tpath" (or "-\t-\tpath" for binary files).
func parseNumstatLine(line string) (FileChange, bool) {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) != 3 {
		return FileChange{}, false
	}
	ins, insErr := strconv.Atoi(parts[0])
	del, delErr := strconv.Atoi(parts[1])
	if parts[0] == "-" {
		ins, insErr = 0, nil
	}
	if parts[1] == "-" {
		del, delErr = 0, nil
	}
	if insErr != nil || delErr != nil {
		return FileChange{}, false
	}
	path := parts[2]
	// Rename notation "old => new" or "prefix/{old => new}/rest"
	if idx := strings.Index(path, " => "); idx >= 0 {
		path = renameTarget(path)
	}
	return FileChange{Path: path, Insertions: ins, Deletions: del, Status: "modified"}, true
}

// renameTarget resolves git's rename notation to the new path.
func renameTarget(path string) string {
	open := strings.Index(path, "{")
	end := strings.Index(path, "}")
	if open >= 0 && end > open {
		inner := path[open+1 : end]
		parts := strings.SplitN(inner, " => ", 2)
		newInner := inner
		if len(parts) == 2 {
			newInner = parts[1]
		}
		resolved := path[:open] + newInner + path[end+1:]
		return strings.ReplaceAll(resolved, "//", "/")
	}
	parts := strings.SplitN(path, " => ", 2)
	return parts[len(parts)-1]
}

// parseNameStatus parses `git log --name-status` into hash → path → status.
func parseNameStatus(out []byte) map[string]map[string]string {
	result := make(map[string]map[string]string)
	for _, record := range strings.Split(string(out), recSep) {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		lines := strings.Split(record, "\n")
		hash := strings.TrimSpace(lines[0])
		statuses := make(map[string]string)
		for _, line := range lines[1:] {
			parts := strings.Split(line, "\t")
			if len(parts) < 2 {
				continue
			}
			status := statusWord(parts[0])
			path := parts[len(parts)-1] // renames list old\tnew; take new
			statuses[path] = status
		}
		result[hash] = statuses
	}
	return result
}

func statusWord(letter string) string {
	switch {
	case strings.HasPrefix(letter, "A"):
		return "added"
	case strings.HasPrefix(letter, "D"):
		return "deleted"
	case strings.HasPrefix(letter, "R"):
		return "renamed"
	default:
		return "modified"
	}
}

func applyStatuses(commits []Commit, statuses map[string]map[string]string) {
	for i := range commits {
		byPath, ok := statuses[commits[i].Hash]
		if !ok {
			continue
		}
		for j := range commits[i].Files {
			if st, ok := byPath[commits[i].Files[j].Path]; ok {
				commits[i].Files[j].Status = st
			}
		}
	}
}

// AuthorStat aggregates one author's activity over the full history.
type AuthorStat struct {
	Name    string
	Commits int
	First   time.Time
	Last    time.Time
}

// Authors aggregates the full commit history into per-author stats, keyed by
// email. Unlike Log this walk is never bounded — author counts and first/
// last-seen timestamps cover the whole repository.
func (c *Client) Authors(ctx context.Context) (map[string]*AuthorStat, error) {
	out, err := c.run(ctx, "log", "--format=%ae"+fieldSep+"%an"+fieldSep+"%at")
	if err != nil {
		return nil, err
	}
	return parseAuthors(out), nil
}

func parseAuthors(out []byte) map[string]*AuthorStat {
	result := make(map[string]*AuthorStat)
	for _, line := range strings.Split(string(out), "\n") {
		parts := strings.Split(strings.TrimSpace(line), fieldSep)
		if len(parts) != 3 || parts[0] == "" {
			continue
		}
		email, name := parts[0], parts[1]
		unix, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			continue
		}
		ts := time.Unix(unix, 0).UTC()

		st := result[email]
		if st == nil {
			st = &AuthorStat{Name: name, First: ts, Last: ts}
			result[email] = st
		}
		st.Commits++
		if ts.Before(st.First) {
			st.First = ts
		}
		if ts.After(st.Last) {
			st.Last = ts
		}
	}
	return result
}

// Blame returns per-author line attribution for one file, keyed by email.
func (c *Client) Blame(ctx context.Context, relPath string) (map[string]*BlameEntry, error) {
	out, err := c.run(ctx, "blame", "--line-porcelain", "--", relPath)
	if err != nil {
		return nil, err
	}
	return parseBlame(out), nil
}

// parseBlame counts lines per author from --line-porcelain output.
func parseBlame(out []byte) map[string]*BlameEntry {
	result := make(map[string]*BlameEntry)
	var currentName string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if name, ok := strings.CutPrefix(line, "author "); ok {
			currentName = name
			continue
		}
		if mail, ok := strings.CutPrefix(line, "author-mail "); ok {
			email := strings.Trim(mail, "<>")
			entry := result[email]
			if entry == nil {
				entry = &BlameEntry{Name: currentName}
				result[email] = entry
			}
			entry.Lines++
		}
	}
	return result
}

// Branches returns the local branch names.
func (c *Client) Branches(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, "branch", "--format=%(refname:short)")
	if err != nil {
		return nil, err
	}
	var branches []string
	for _, line := range strings.Split(string(out), "\n") {
		if b := strings.TrimSpace(line); b != "" {
			branches = append(branches, b)
		}
	}
	return branches, nil
}

// BranchContaining returns the first local branch containing a commit, or ""
// when none does.
func (c *Client) BranchContaining(ctx context.Context, hash string) (string, error) {
	out, err := c.run(ctx, "branch", "--contains", hash, "--format=%(refname:short)")
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(out), "\n") {
		if b := strings.TrimSpace(line); b != "" {
			return b, nil
		}
	}
	return "", nil
}
