package gitcli

import (
	"testing"
	"time"
)

func TestParseLog(t *testing.T) {
	out := []byte(recSep +
		"abc123" + fieldSep + "abc" + fieldSep + "Ada Lovelace" + fieldSep + "ada@example.com" + fieldSep + "1700000000" + fieldSep + "fix: Closes #7\n\n" +
		"10\t2\tsrc/app.py\n" +
		"-\t-\tassets/logo.png\n" +
		recSep +
		"def456" + fieldSep + "def" + fieldSep + "Bob" + fieldSep + "bob@example.com" + fieldSep + "1690000000" + fieldSep + "refactor parser\n\nsecond paragraph\n\n" +
		"3\t3\tsrc/parser.py\n")

	commits := parseLog(out)
	if len(commits) != 2 {
		t.Fatalf("expected 2 commits, got %d", len(commits))
	}

	c := commits[0]
	if c.Hash != "abc123" || c.ShortHash != "abc" {
		t.Errorf("hash = %q/%q", c.Hash, c.ShortHash)
	}
	if c.AuthorEmail != "ada@example.com" {
		t.Errorf("email = %q", c.AuthorEmail)
	}
	if c.Message != "fix: Closes #7" {
		t.Errorf("message = %q", c.Message)
	}
	if got := c.Timestamp; !got.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("timestamp = %v", got)
	}
	if len(c.Files) != 2 {
		t.Fatalf("expected 2 file changes, got %d: %+v", len(c.Files), c.Files)
	}
	if c.Files[0].Path != "src/app.py" || c.Files[0].Insertions != 10 || c.Files[0].Deletions != 2 {
		t.Errorf("file change = %+v", c.Files[0])
	}
	// Binary files report "-" counts; they become zero, not an error.
	if c.Files[1].Path != "assets/logo.png" || c.Files[1].Insertions != 0 || c.Files[1].Deletions != 0 {
		t.Errorf("binary change = %+v", c.Files[1])
	}

	// Multi-line body stays in the message with its paragraph break intact;
	// numstat lines do not leak in.
	if commits[1].Message != "refactor parser\n\nsecond paragraph" {
		t.Errorf("multi-line message = %q", commits[1].Message)
	}
	if len(commits[1].Files) != 1 {
		t.Errorf("second commit files = %+v", commits[1].Files)
	}
}

func TestParseAuthors(t *testing.T) {
	out := []byte(
		"ada@example.com" + fieldSep + "Ada Lovelace" + fieldSep + "1700000000\n" +
			"bob@example.com" + fieldSep + "Bob" + fieldSep + "1690000000\n" +
			"ada@example.com" + fieldSep + "Ada Lovelace" + fieldSep + "1650000000\n")

	stats := parseAuthors(out)
	if len(stats) != 2 {
		t.Fatalf("expected 2 authors, got %d", len(stats))
	}

	ada := stats["ada@example.com"]
	if ada == nil || ada.Commits != 2 {
		t.Fatalf("ada = %+v", ada)
	}
	if !ada.First.Equal(time.Unix(1650000000, 0)) || !ada.Last.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("ada first/last = %v/%v", ada.First, ada.Last)
	}
	if stats["bob@example.com"].Commits != 1 {
		t.Errorf("bob = %+v", stats["bob@example.com"])
	}
}

func TestParseNumstatLineRename(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"1\t1\told.py => new.py", "new.py"},
		{"0\t0\tsrc/{old => new}/mod.py", "src/new/mod.py"},
		{"2\t0\tsrc/{ => sub}/mod.py", "src/sub/mod.py"},
	}
	for _, tt := range tests {
		fc, ok := parseNumstatLine(tt.line)
		if !ok {
			t.Errorf("parseNumstatLine(%q) not ok", tt.line)
			continue
		}
		if fc.Path != tt.want {
			t.Errorf("parseNumstatLine(%q) path = %q, want %q", tt.line, fc.Path, tt.want)
		}
	}
}

func TestParseNameStatus(t *testing.T) {
	out := []byte(recSep + "abc123\n" +
		"A\tsrc/new.py\n" +
		"M\tsrc/app.py\n" +
		"D\tsrc/gone.py\n" +
		"R100\tsrc/old.py\tsrc/renamed.py\n")

	statuses := parseNameStatus(out)
	byPath := statuses["abc123"]
	if byPath == nil {
		t.Fatal("missing commit in status map")
	}
	want := map[string]string{
		"src/new.py":     "added",
		"src/app.py":     "modified",
		"src/gone.py":    "deleted",
		"src/renamed.py": "renamed",
	}
	for path, status := range want {
		if byPath[path] != status {
			t.Errorf("status[%q] = %q, want %q", path, byPath[path], status)
		}
	}
}

func TestApplyStatuses(t *testing.T) {
	commits := []Commit{{
		Hash:  "abc123",
		Files: []FileChange{{Path: "src/new.py", Status: "modified"}},
	}}
	applyStatuses(commits, map[string]map[string]string{
		"abc123": {"src/new.py": "added"},
	})
	if commits[0].Files[0].Status != "added" {
		t.Errorf("status = %q, want added", commits[0].Files[0].Status)
	}
}

func TestParseBlame(t *testing.T) {
	out := []byte(`abc123 1 1 2
author Ada Lovelace
author-mail <ada@example.com>
	line one
abc123 2 2
author Ada Lovelace
author-mail <ada@example.com>
	line two
def456 3 3 1
author Bob
author-mail <bob@example.com>
	line three
`)
	entries := parseBlame(out)
	if len(entries) != 2 {
		t.Fatalf("expected 2 authors, got %d", len(entries))
	}
	ada := entries["ada@example.com"]
	if ada == nil || ada.Lines != 2 || ada.Name != "Ada Lovelace" {
		t.Errorf("ada entry = %+v", ada)
	}
	bob := entries["bob@example.com"]
	if bob == nil || bob.Lines != 1 {
		t.Errorf("bob entry = %+v", bob)
	}
}
