package store

import (
	"fmt"
	"strings"
)

// SearchOpts filters a full-text search.
type SearchOpts struct {
	Category       string
	Project        string // matches this project plus global memories
	Limit          int
	IncludeRetired bool // include superseded and retired records
}

// SearchHit is one full-text match. Relevance is the raw FTS5 rank,
// an opaque signal where lower sorts better.
type SearchHit struct {
	Memory
	Relevance float64
}

// SearchMemories runs an FTS5 MATCH query over content, context, and
// category. Query syntax follows FTS5 (AND, OR, NOT, "exact phrase").
// This is the search oracle: it locates candidates by keyword; lifecycle
// re-filtering and access bookkeeping happen in the engine.
func (db *DB) SearchMemories(query string, opts SearchOpts) ([]SearchHit, error) {
	conditions := []string{}
	var args []any
	args = append(args, query)

	if !opts.IncludeRetired {
		conditions = append(conditions, "m.superseded_by IS NULL")
	}
	if opts.Category != "" {
		conditions = append(conditions, "m.category = ?")
		args = append(args, opts.Category)
	}
	if opts.Project != "" {
		conditions = append(conditions, "(m.project = ? OR m.project IS NULL)")
		args = append(args, opts.Project)
	}

	where := ""
	if len(conditions) > 0 {
		where = " AND " + strings.Join(conditions, " AND ")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	args = append(args, limit)

	rows, err := db.Query(fmt.Sprintf(`
		SELECT %s, rank
		FROM memories_fts fts
		JOIN memories m ON m.id = fts.rowid
		WHERE memories_fts MATCH ?%s
		ORDER BY rank
		LIMIT ?
	`, qualifyColumns("m"), where), args...)
	if err != nil {
		return nil, fmt.Errorf("search memories: %w", err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		m, err := scanMemoryRow(rows, &h.Relevance)
		if err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}
		h.Memory = *m
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// qualifyColumns prefixes each memory column with a table alias.
func qualifyColumns(alias string) string {
	cols := strings.Split(memoryColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
