package store

import (
	"fmt"
	"strings"
)

// AddTags attaches tags to a memory. Tags are trimmed and lower-cased;
// empty tags are dropped. Duplicate attachment is a no-op (set semantics).
func (db *DB) AddTags(memoryID int64, tags []string) error {
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, err := db.Exec(
			"INSERT OR IGNORE INTO tags (memory_id, tag) VALUES (?, ?)",
			memoryID, tag,
		); err != nil {
			return fmt.Errorf("add tag %q: %w", tag, err)
		}
	}
	return nil
}

// TagsFor returns the tags attached to a memory, sorted.
func (db *DB) TagsFor(memoryID int64) ([]string, error) {
	rows, err := db.Query("SELECT tag FROM tags WHERE memory_id = ? ORDER BY tag", memoryID)
	if err != nil {
		return nil, fmt.Errorf("tags for %d: %w", memoryID, err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// CopyTags carries every tag on the source memory over to the
// destination. Tags already present on the destination are kept.
func (db *DB) CopyTags(fromID, toID int64) error {
	_, err := db.Exec(`
		INSERT OR IGNORE INTO tags (memory_id, tag)
		SELECT ?, tag FROM tags WHERE memory_id = ?
	`, toID, fromID)
	if err != nil {
		return fmt.Errorf("copy tags %d -> %d: %w", fromID, toID, err)
	}
	return nil
}
