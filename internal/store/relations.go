package store

import (
	"fmt"
)

// ValidRelations is the fixed relation type enumeration.
var ValidRelations = map[string]bool{
	"contradicts": true,
	"supports":    true,
	"refines":     true,
	"supersedes":  true,
}

// Relation is a directed, typed edge between two memories.
type Relation struct {
	FromID int64  `json:"from_id"`
	ToID   int64  `json:"to_id"`
	Type   string `json:"type"`
}

// AddRelation inserts a typed edge. Inserting the same (from, to, type)
// triple again is a silent no-op. Endpoints are not validated here; the
// engine checks existence before calling.
func (db *DB) AddRelation(fromID, toID int64, relType string) error {
	if !ValidRelations[relType] {
		return fmt.Errorf("%w: %q", ErrInvalidRelation, relType)
	}
	_, err := db.Exec(
		"INSERT OR IGNORE INTO relations (from_id, to_id, relation_type) VALUES (?, ?, ?)",
		fromID, toID, relType,
	)
	if err != nil {
		return fmt.Errorf("add relation: %w", err)
	}
	return nil
}

// RelationsFor returns every edge touching the given memory, in either
// direction.
func (db *DB) RelationsFor(memoryID int64) ([]Relation, error) {
	rows, err := db.Query(`
		SELECT from_id, to_id, relation_type FROM relations
		WHERE from_id = ? OR to_id = ?
		ORDER BY from_id, to_id, relation_type
	`, memoryID, memoryID)
	if err != nil {
		return nil, fmt.Errorf("relations for %d: %w", memoryID, err)
	}
	defer rows.Close()

	var relations []Relation
	for rows.Next() {
		var r Relation
		if err := rows.Scan(&r.FromID, &r.ToID, &r.Type); err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		relations = append(relations, r)
	}
	return relations, rows.Err()
}
