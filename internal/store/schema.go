package store

import "fmt"

// The graph schema is fixed and closed: populators may only create nodes and
// edges drawn from these sets. This is not a general-purpose graph database.

// NodeLabels is the closed set of node types.
var NodeLabels = []string{
	"Task", "File", "Symbol", "Commit", "Person", "Dependency",
	"Test", "Documentation", "Reference", "Plan", "Note", "Branch",
}

// EdgeTypes is the closed set of relationship types.
var EdgeTypes = []string{
	"CHANGES", "CONTAINS", "IMPORTS", "IMPLEMENTED_IN", "MODIFIES",
	"AUTHORED", "OWNS", "DEPENDS_ON_DEPENDENCY", "COVERS",
	"DOCUMENTS_FILE", "DOC_DOCUMENTS_SYMBOL", "DOC_REFERENCES_TASK",
}

// Initialize creates the graph tables. When dropExisting is true, the edges
// table is dropped before the nodes table (edges reference node ids), each
// drop tolerating a missing table. Creation uses IF NOT EXISTS so calling
// Initialize on an already-initialized store is a no-op — it is safe to call
// on every indexing run.
func (s *Store) Initialize(dropExisting bool) error {
	if dropExisting {
		// Relationship table first, then node table.
		if _, err := s.q.Exec(`DROP TABLE IF EXISTS edges`); err != nil {
			return fmt.Errorf("drop edges: %w", err)
		}
		if _, err := s.q.Exec(`DROP TABLE IF EXISTS nodes`); err != nil {
			return fmt.Errorf("drop nodes: %w", err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS nodes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		label TEXT NOT NULL,
		node_key TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		file_path TEXT NOT NULL DEFAULT '',
		start_line INTEGER NOT NULL DEFAULT 0,
		end_line INTEGER NOT NULL DEFAULT 0,
		properties TEXT NOT NULL DEFAULT '{}',
		UNIQUE(label, node_key)
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_label ON nodes(label);
	CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes(label, name);
	CREATE INDEX IF NOT EXISTS idx_nodes_file ON nodes(file_path);

	CREATE TABLE IF NOT EXISTS edges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_id INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		target_id INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		properties TEXT NOT NULL DEFAULT '{}',
		UNIQUE(source_id, target_id, type)
	);

	CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id, type);
	CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id, type);
	CREATE INDEX IF NOT EXISTS idx_edges_type ON edges(type);
	`
	if _, err := s.q.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SchemaInfo holds per-type node and edge counts for diagnostics.
type SchemaInfo struct {
	Nodes map[string]int
	Edges map[string]int
}

// GetSchemaInfo returns node counts per label and edge counts per type.
// Labels and types with zero instances are included so callers see the
// full schema, not just the populated part.
func (s *Store) GetSchemaInfo() (*SchemaInfo, error) {
	info := &SchemaInfo{
		Nodes: make(map[string]int, len(NodeLabels)),
		Edges: make(map[string]int, len(EdgeTypes)),
	}
	for _, l := range NodeLabels {
		info.Nodes[l] = 0
	}
	for _, t := range EdgeTypes {
		info.Edges[t] = 0
	}

	rows, err := s.q.Query(`SELECT label, COUNT(*) FROM nodes GROUP BY label`)
	if err != nil {
		return nil, fmt.Errorf("count nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var label string
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return nil, err
		}
		info.Nodes[label] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	erows, err := s.q.Query(`SELECT type, COUNT(*) FROM edges GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("count edges: %w", err)
	}
	defer erows.Close()
	for erows.Next() {
		var typ string
		var count int
		if err := erows.Scan(&typ, &count); err != nil {
			return nil, err
		}
		info.Edges[typ] = count
	}
	return info, erows.Err()
}
