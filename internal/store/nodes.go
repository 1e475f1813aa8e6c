package store

import (
	"database/sql"
	"fmt"
	"strings"
)

const nodeCols = "id, label, node_key, name, file_path, start_line, end_line, properties"

// UpsertNode inserts or updates a node (dedup by label + key).
// RETURNING resolves the row ID on both paths; LastInsertId is useless here
// because on the DO UPDATE path it reports the connection's previous insert,
// not the updated row.
func (s *Store) UpsertNode(n *Node) (int64, error) {
	var id int64
	err := s.q.QueryRow(`
		INSERT INTO nodes (label, node_key, name, file_path, start_line, end_line, properties)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(label, node_key) DO UPDATE SET
			name=excluded.name, file_path=excluded.file_path,
			start_line=excluded.start_line, end_line=excluded.end_line, properties=excluded.properties
		RETURNING id`,
		n.Label, n.Key, n.Name, n.FilePath, n.StartLine, n.EndLine, marshalProps(n.Properties)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert node: %w", err)
	}
	return id, nil
}

// FindNodeByID finds a node by its primary key ID.
func (s *Store) FindNodeByID(id int64) (*Node, error) {
	row := s.q.QueryRow(`SELECT `+nodeCols+` FROM nodes WHERE id=?`, id)
	return scanNode(row)
}

// FindNodeByKey finds a node by label and key. Returns (nil, nil) when absent.
func (s *Store) FindNodeByKey(label, key string) (*Node, error) {
	row := s.q.QueryRow(`SELECT `+nodeCols+` FROM nodes WHERE label=? AND node_key=?`, label, key)
	return scanNode(row)
}

// NodeExists reports whether a node with the given label and key exists.
func (s *Store) NodeExists(label, key string) (bool, error) {
	var one int
	err := s.q.QueryRow(`SELECT 1 FROM nodes WHERE label=? AND node_key=?`, label, key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FindNodesByLabel finds all nodes with a given label.
func (s *Store) FindNodesByLabel(label string) ([]*Node, error) {
	rows, err := s.q.Query(`SELECT `+nodeCols+` FROM nodes WHERE label=?`, label)
	if err != nil {
		return nil, fmt.Errorf("find by label: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// FindNodesByFile finds all nodes attached to a given file path.
func (s *Store) FindNodesByFile(label, filePath string) ([]*Node, error) {
	rows, err := s.q.Query(`SELECT `+nodeCols+` FROM nodes WHERE label=? AND file_path=?`, label, filePath)
	if err != nil {
		return nil, fmt.Errorf("find by file: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// FindNodesByName finds nodes of a label with an exact name.
func (s *Store) FindNodesByName(label, name string) ([]*Node, error) {
	rows, err := s.q.Query(`SELECT `+nodeCols+` FROM nodes WHERE label=? AND name=?`, label, name)
	if err != nil {
		return nil, fmt.Errorf("find by name: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// SearchNodesByName finds nodes of a label whose name contains the pattern,
// case-insensitively, capped at limit.
func (s *Store) SearchNodesByName(label, pattern string, limit int) ([]*Node, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.q.Query(`SELECT `+nodeCols+` FROM nodes
		WHERE label=? AND name LIKE '%' || ? || '%' COLLATE NOCASE
		ORDER BY name LIMIT ?`, label, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search by name: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// CountNodes returns the total number of nodes.
func (s *Store) CountNodes() (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&count)
	return count, err
}

// CountNodesByLabel returns the number of nodes with a given label.
func (s *Store) CountNodesByLabel(label string) (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM nodes WHERE label=?", label).Scan(&count)
	return count, err
}

// DeleteNodesByFile deletes all nodes of a label attached to a file path.
func (s *Store) DeleteNodesByFile(label, filePath string) error {
	_, err := s.q.Exec("DELETE FROM nodes WHERE label=? AND file_path=?", label, filePath)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (*Node, error) {
	var n Node
	var props string
	err := row.Scan(&n.ID, &n.Label, &n.Key, &n.Name, &n.FilePath, &n.StartLine, &n.EndLine, &props)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	n.Properties = unmarshalProps(props)
	return &n, nil
}

func scanNodes(rows *sql.Rows) ([]*Node, error) {
	var result []*Node
	for rows.Next() {
		var n Node
		var props string
		if err := rows.Scan(&n.ID, &n.Label, &n.Key, &n.Name, &n.FilePath, &n.StartLine, &n.EndLine, &props); err != nil {
			return nil, err
		}
		n.Properties = unmarshalProps(props)
		result = append(result, &n)
	}
	return result, rows.Err()
}

// Formula-derived batch size: SQLite has a 999 bind variable limit.
const numNodeCols = 7
const nodesBatchSize = 999 / numNodeCols // = 142

// UpsertNodeBatch inserts or updates multiple nodes in batched multi-row
// INSERTs. Returns a map of key → ID for all upserted nodes.
func (s *Store) UpsertNodeBatch(nodes []*Node) (map[string]int64, error) {
	if len(nodes) == 0 {
		return map[string]int64{}, nil
	}

	result := make(map[string]int64, len(nodes))
	for i := 0; i < len(nodes); i += nodesBatchSize {
		end := i + nodesBatchSize
		if end > len(nodes) {
			end = len(nodes)
		}
		if err := s.upsertNodeChunk(nodes[i:end], result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *Store) upsertNodeChunk(batch []*Node, idMap map[string]int64) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO nodes (label, node_key, name, file_path, start_line, end_line, properties) VALUES `)

	args := make([]any, 0, len(batch)*numNodeCols)
	for i, n := range batch {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("(?,?,?,?,?,?,?)")
		args = append(args, n.Label, n.Key, n.Name, n.FilePath, n.StartLine, n.EndLine, marshalProps(n.Properties))
	}
	sb.WriteString(` ON CONFLICT(label, node_key) DO UPDATE SET
		name=excluded.name, file_path=excluded.file_path,
		start_line=excluded.start_line, end_line=excluded.end_line, properties=excluded.properties`)

	if _, err := s.q.Exec(sb.String(), args...); err != nil {
		return fmt.Errorf("upsert node batch: %w", err)
	}

	// Recover IDs via SELECT ... IN (...), grouped by label since the UNIQUE
	// constraint is (label, node_key).
	byLabel := make(map[string][]string)
	for _, n := range batch {
		byLabel[n.Label] = append(byLabel[n.Label], n.Key)
	}
	for label, keys := range byLabel {
		if err := s.resolveNodeIDs(label, keys, idMap); err != nil {
			return err
		}
	}
	return nil
}

// resolveNodeIDs fetches IDs for a set of keys under one label.
// Respects the 999-var limit by batching the IN clause.
func (s *Store) resolveNodeIDs(label string, keys []string, idMap map[string]int64) error {
	const maxKeysPerQuery = 998 // 1 var for label + N vars for keys

	for i := 0; i < len(keys); i += maxKeysPerQuery {
		end := i + maxKeysPerQuery
		if end > len(keys) {
			end = len(keys)
		}
		chunk := keys[i:end]

		placeholders := make([]string, len(chunk))
		args := make([]any, 0, len(chunk)+1)
		args = append(args, label)
		for j, k := range chunk {
			placeholders[j] = "?"
			args = append(args, k)
		}

		query := fmt.Sprintf("SELECT id, node_key FROM nodes WHERE label = ? AND node_key IN (%s)",
			strings.Join(placeholders, ","))

		if err := func() error {
			rows, err := s.q.Query(query, args...)
			if err != nil {
				return fmt.Errorf("resolve node IDs: %w", err)
			}
			defer rows.Close()
			for rows.Next() {
				var id int64
				var key string
				if err := rows.Scan(&id, &key); err != nil {
					return err
				}
				idMap[key] = id
			}
			return rows.Err()
		}(); err != nil {
			return err
		}
	}
	return nil
}
