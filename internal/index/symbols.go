package index

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marctjones/idlergear/internal/discover"
	"github.com/marctjones/idlergear/internal/parser"
	"github.com/marctjones/idlergear/internal/store"
)

// CodeSymbols scans source files and populates File and Symbol nodes,
// CONTAINS edges and resolved IMPORTS edges. A file whose content hash
// matches the persisted File node is not re-parsed — the stored node is the
// incremental state, there is no process-lifetime cache.
type CodeSymbols struct {
	Store *store.Store
}

func (p *CodeSymbols) Name() string { return "code_symbols" }

// contentHash is the first 8 hex chars of the SHA-1 of the file content.
func contentHash(content []byte) string {
	sum := sha1.Sum(content)
	return hex.EncodeToString(sum[:])[:8]
}

// parsedFile is the outcome of the parallel read+hash+parse stage for one file.
type parsedFile struct {
	file    discover.FileInfo
	hash    string
	size    int64
	lines   int
	modTime time.Time
	parse   *parser.FileParse
	skipped bool
	err     error
}

func (p *CodeSymbols) Populate(ctx context.Context, opts *Options) (*Result, error) {
	res := &Result{}

	files, err := discover.Discover(ctx, opts.RepoPath, &discover.Options{Extra: opts.Config.Ignore})
	if err != nil {
		slog.Warn("symbols.discover.err", "err", err)
		return res, nil
	}
	if len(files) == 0 {
		return res, nil
	}

	storedHashes, err := p.storedFileHashes()
	if err != nil {
		return res, err
	}

	// Stage 1: parallel read + hash + parse (CPU-bound, no DB).
	results := make([]*parsedFile, len(files))
	numWorkers := runtime.NumCPU()
	if numWorkers > len(files) {
		numWorkers = len(files)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	for i, f := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = processFile(f, storedHashes, opts.Incremental)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	// Stage 2: sequential DB writes.
	for _, r := range results {
		if r == nil || r.skipped {
			continue
		}
		if r.err != nil {
			res.addErr(r.file.RelPath, r.err)
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := p.writeFile(r, opts, res, storedHashes); err != nil {
			return res, err
		}
	}
	return res, nil
}

// storedFileHashes loads relPath → content hash for all persisted File nodes.
func (p *CodeSymbols) storedFileHashes() (map[string]string, error) {
	nodes, err := p.Store.FindNodesByLabel("File")
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

// processFile reads, hashes and (when changed) parses one file.
func processFile(f discover.FileInfo, storedHashes map[string]string, incremental bool) *parsedFile {
	r := &parsedFile{file: f}

	info, err := os.Stat(f.Path)
	if err != nil {
		r.err = err
		return r
	}
	content, err := os.ReadFile(f.Path)
	if err != nil {
		r.err = err
		return r
	}

	r.hash = contentHash(content)
	r.size = info.Size()
	r.modTime = info.ModTime().UTC()
	r.lines = bytes.Count(content, []byte("\n")) + 1

	if incremental && storedHashes[f.RelPath] == r.hash {
		r.skipped = true
		return r
	}

	// A nil parse means binary content or a parse error: the File node is
	// still recorded, just without symbols.
	r.parse = parser.ParseFile(f.Path, content)
	return r
}

// writeFile upserts the File node, its Symbols, CONTAINS edges and IMPORTS.
func (p *CodeSymbols) writeFile(r *parsedFile, opts *Options, res *Result, storedHashes map[string]string) error {
	relPath := r.file.RelPath
	_, known := storedHashes[relPath]

	props := map[string]any{
		"language":   string(r.file.Language),
		"size":       r.size,
		"line_count": r.lines,
		"modified":   r.modTime.Format(time.RFC3339),
		"hash":       r.hash,
		"exists":     true,
	}
	fileID, err := p.Store.UpsertNode(&store.Node{
		Label:      "File",
		Key:        store.FileKey(relPath),
		Name:       filepath.Base(relPath),
		FilePath:   relPath,
		Properties: props,
	})
	if err != nil {
		return err
	}
	if known {
		res.Updated++
	} else {
		res.Created++
	}

	if r.parse == nil {
		return nil
	}

	// Symbol keys embed the start line, so a shifted file leaves stale
	// symbols behind; drop the file's old symbols before re-inserting.
	if known {
		if err := p.Store.DeleteNodesByFile("Symbol", relPath); err != nil {
			return err
		}
	}

	symNodes := make([]*store.Node, 0, len(r.parse.Symbols))
	for _, sym := range r.parse.Symbols {
		if sym.Name == "" {
			continue
		}
		symNodes = append(symNodes, &store.Node{
			Label:     "Symbol",
			Key:       store.SymbolKey(relPath, sym.StartLine, sym.Name),
			Name:      sym.Name,
			FilePath:  relPath,
			StartLine: sym.StartLine,
			EndLine:   sym.EndLine,
			Properties: map[string]any{
				"kind":      sym.Kind,
				"docstring": sym.Docstring,
				"code":      sym.Code,
			},
		})
	}
	idMap, err := p.Store.UpsertNodeBatch(symNodes)
	if err != nil {
		return err
	}
	res.Created += len(idMap)

	edges := make([]*store.Edge, 0, len(idMap))
	for _, id := range idMap {
		edges = append(edges, &store.Edge{SourceID: fileID, TargetID: id, Type: "CONTAINS"})
	}
	if err := p.Store.InsertEdgeBatch(edges); err != nil {
		return err
	}
	res.Relationships += len(edges)

	for _, imp := range r.parse.Imports {
		target, ok := resolveImport(opts.RepoPath, relPath, imp.Module, r.file.Language, opts.Config.SourceRoots)
		if !ok {
			continue // unresolved import is a non-event, not an error
		}
		targetID, err := ensureFileNode(p.Store, opts.RepoPath, target)
		if err != nil {
			return err
		}
		if _, err := p.Store.InsertEdge(&store.Edge{
			SourceID:   fileID,
			TargetID:   targetID,
			Type:       "IMPORTS",
			Properties: map[string]any{"line": imp.Line},
		}); err != nil {
			res.addErr(relPath+" imports "+target, err)
			continue
		}
		res.Relationships++
	}
	return nil
}
