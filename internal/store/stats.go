package store

import (
	"fmt"
)

// Stats summarizes the state of the memory store.
type Stats struct {
	TotalActive     int            `json:"total_active"`
	TotalSuperseded int            `json:"total_superseded"`
	TotalRetired    int            `json:"total_retired"`
	ByCategory      map[string]int `json:"by_category"`
	ByProject       map[string]int `json:"by_project"`
	MostAccessed    []Memory       `json:"most_accessed"`
}

// CollectStats gathers counts by lifecycle state, category, and project,
// plus the five most-accessed active memories.
func (db *DB) CollectStats() (*Stats, error) {
	s := &Stats{
		ByCategory: map[string]int{},
		ByProject:  map[string]int{},
	}

	err := db.QueryRow(
		"SELECT COUNT(*) FROM memories WHERE superseded_by IS NULL",
	).Scan(&s.TotalActive)
	if err != nil {
		return nil, fmt.Errorf("count active: %w", err)
	}

	err = db.QueryRow(`
		SELECT COUNT(*) FROM memories
		WHERE superseded_by IS NOT NULL AND superseded_by != id AND superseded_by >= 0
	`).Scan(&s.TotalSuperseded)
	if err != nil {
		return nil, fmt.Errorf("count superseded: %w", err)
	}

	err = db.QueryRow(`
		SELECT COUNT(*) FROM memories
		WHERE superseded_by IS NOT NULL AND (superseded_by = id OR superseded_by < 0)
	`).Scan(&s.TotalRetired)
	if err != nil {
		return nil, fmt.Errorf("count retired: %w", err)
	}

	rows, err := db.Query(`
		SELECT category, COUNT(*) FROM memories
		WHERE superseded_by IS NULL GROUP BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		s.ByCategory[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	projRows, err := db.Query(`
		SELECT COALESCE(project, 'global'), COUNT(*) FROM memories
		WHERE superseded_by IS NULL GROUP BY project
	`)
	if err != nil {
		return nil, fmt.Errorf("count by project: %w", err)
	}
	defer projRows.Close()
	for projRows.Next() {
		var project string
		var count int
		if err := projRows.Scan(&project, &count); err != nil {
			return nil, fmt.Errorf("scan project count: %w", err)
		}
		s.ByProject[project] = count
	}
	if err := projRows.Err(); err != nil {
		return nil, err
	}

	topRows, err := db.Query(`SELECT ` + memoryColumns + ` FROM memories
		WHERE superseded_by IS NULL ORDER BY access_count DESC LIMIT 5`)
	if err != nil {
		return nil, fmt.Errorf("most accessed: %w", err)
	}
	defer topRows.Close()
	s.MostAccessed, err = scanMemories(topRows)
	if err != nil {
		return nil, err
	}

	return s, nil
}
