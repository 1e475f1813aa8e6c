package index

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/marctjones/idlergear/internal/store"
)

// Wiki indexes the project's wiki directory into Documentation nodes and
// links each document to the files, symbols and tasks it mentions. Documents
// are hash-gated like source files: an unchanged body is not re-scanned.
type Wiki struct {
	Store *store.Store
}

func (p *Wiki) Name() string { return "wiki" }

// docHash is the xxh3 of the document body, hex-encoded. Wiki bodies are
// never exposed as a graph observable the way File.hash is, so a fast
// non-cryptographic hash is fine here.
func docHash(content []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(content))
}

func (p *Wiki) Populate(ctx context.Context, opts *Options) (*Result, error) {
	res := &Result{}

	wikiDir := opts.Config.WikiDir
	if wikiDir == "" {
		return res, nil // wiki indexing is opt-in via config
	}
	root := filepath.Join(opts.RepoPath, filepath.FromSlash(wikiDir))
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return res, nil // no wiki: nothing to index
	}

	storedHashes, err := p.storedDocHashes()
	if err != nil {
		return res, err
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree: skip, keep walking
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, _ := filepath.Rel(opts.RepoPath, path)
		rel = filepath.ToSlash(rel)

		content, err := os.ReadFile(path)
		if err != nil {
			res.addErr(rel, err)
			return nil
		}
		hash := docHash(content)
		if opts.Incremental && storedHashes[rel] == hash {
			return nil
		}
		if err := p.writeDoc(rel, string(content), hash, storedHashes, res); err != nil {
			res.addErr(rel, err)
		}
		return nil
	})
	return res, err
}

// storedDocHashes loads path → body hash for all persisted Documentation nodes.
func (p *Wiki) storedDocHashes() (map[string]string, error) {
	nodes, err := p.Store.FindNodesByLabel("Documentation")
	if err != nil {
		return nil, err
	}
	hashes := make(map[string]string, len(nodes))
	for _, n := range nodes {
		if h, ok := n.Properties["hash"].(string); ok && h != "" {
			hashes[n.FilePath] = h
		}
	}
	return hashes, nil
}

func (p *Wiki) writeDoc(rel, body, hash string, storedHashes map[string]string, res *Result) error {
	name := strings.TrimSuffix(filepath.Base(rel), ".md")
	mentions := extractMentions(body, name, true)

	_, known := storedHashes[rel]
	docID, err := p.Store.UpsertNode(&store.Node{
		Label:    "Documentation",
		Key:      store.DocKey(rel),
		Name:     mentions.Title,
		FilePath: rel,
		Properties: map[string]any{
			"title": mentions.Title,
			"tags":  mentions.Tags,
			"hash":  hash,
		},
	})
	if err != nil {
		return err
	}
	if known {
		res.Updated++
	} else {
		res.Created++
	}

	for _, path := range mentions.Files {
		file, err := p.Store.FindNodeByKey("File", store.FileKey(path))
		if err != nil {
			return err
		}
		if file == nil {
			continue
		}
		has, err := p.Store.HasEdge(docID, file.ID, "DOCUMENTS_FILE")
		if err != nil {
			return err
		}
		if !has {
			if _, err := p.Store.InsertEdge(&store.Edge{
				SourceID: docID, TargetID: file.ID, Type: "DOCUMENTS_FILE",
			}); err != nil {
				return err
			}
			res.Relationships++
		}
	}

	for _, ident := range mentions.Idents {
		symbols, err := p.Store.FindNodesByName("Symbol", ident)
		if err != nil {
			return err
		}
		for _, sym := range symbols {
			has, err := p.Store.HasEdge(docID, sym.ID, "DOC_DOCUMENTS_SYMBOL")
			if err != nil {
				return err
			}
			if has {
				continue
			}
			if _, err := p.Store.InsertEdge(&store.Edge{
				SourceID: docID, TargetID: sym.ID, Type: "DOC_DOCUMENTS_SYMBOL",
			}); err != nil {
				return err
			}
			res.Relationships++
		}
	}

	for _, taskID := range mentions.Tasks {
		task, err := p.Store.FindNodeByKey("Task", store.TaskKey(taskID))
		if err != nil {
			return err
		}
		if task == nil {
			continue
		}
		has, err := p.Store.HasEdge(docID, task.ID, "DOC_REFERENCES_TASK")
		if err != nil {
			return err
		}
		if !has {
			if _, err := p.Store.InsertEdge(&store.Edge{
				SourceID: docID, TargetID: task.ID, Type: "DOC_REFERENCES_TASK",
			}); err != nil {
				return err
			}
			res.Relationships++
		}
	}
	return nil
}
