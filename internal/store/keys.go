package store

import "fmt"

// Node keys are globally unique per label. The formats below are part of the
// graph's data model: a populator upserting a node and a later populator
// looking it up must agree byte-for-byte.

// TaskKey returns the key for a Task node.
func TaskKey(id int64) string { return fmt.Sprintf("task:%d", id) }

// FileKey returns the key for a File node. Path is repo-relative, slash-separated.
func FileKey(path string) string { return "file:" + path }

// SymbolKey returns the composite key for a Symbol node.
func SymbolKey(path string, startLine int, name string) string {
	return fmt.Sprintf("symbol:%s:%d:%s", path, startLine, name)
}

// CommitKey returns the key for a Commit node (full hash).
func CommitKey(hash string) string { return "commit:" + hash }

// PersonKey returns the key for a Person node.
func PersonKey(email string) string { return "person:" + email }

// DependencyKey returns the key for a Dependency node.
func DependencyKey(name string) string { return "dependency:" + name }

// TestKey returns the composite key for a Test node.
func TestKey(path, name string) string { return fmt.Sprintf("test:%s::%s", path, name) }

// DocKey returns the key for a Documentation node.
func DocKey(path string) string { return "doc:" + path }

// ReferenceKey returns the key for a Reference node.
func ReferenceKey(id int64) string { return fmt.Sprintf("ref:%d", id) }

// PlanKey returns the key for a Plan node.
func PlanKey(name string) string { return "plan:" + name }

// NoteKey returns the key for a Note node.
func NoteKey(id int64) string { return fmt.Sprintf("note:%d", id) }

// BranchKey returns the key for a Branch node.
func BranchKey(name string) string { return "branch:" + name }
