package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "memories: core record table with soft lifecycle",
		SQL: `
CREATE TABLE memories (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    category       TEXT NOT NULL CHECK (category IN ('preferences', 'facts', 'corrections', 'decisions', 'project-knowledge', 'relationships', 'procedures')),
    content        TEXT NOT NULL,
    context        TEXT,
    project        TEXT,
    importance     REAL NOT NULL DEFAULT 0.5,
    confidence     REAL NOT NULL DEFAULT 0.8,
    access_count   INTEGER NOT NULL DEFAULT 0,
    last_accessed  INTEGER,
    created_at     INTEGER NOT NULL,
    updated_at     INTEGER NOT NULL,
    source_session TEXT,

    -- Lifecycle: NULL = active, another id = superseded by that record,
    -- own id or -1 = retired with no replacement.
    superseded_by  INTEGER
);

CREATE INDEX idx_memories_category   ON memories(category);
CREATE INDEX idx_memories_project    ON memories(project);
CREATE INDEX idx_memories_importance ON memories(importance DESC);
CREATE INDEX idx_memories_active     ON memories(superseded_by) WHERE superseded_by IS NULL;
`,
	},
	{
		Version:     2,
		Description: "tags: keyword tags per memory, set semantics",
		SQL: `
CREATE TABLE tags (
    memory_id INTEGER NOT NULL,
    tag       TEXT NOT NULL,
    PRIMARY KEY (memory_id, tag),
    FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE
);

CREATE INDEX idx_tags_tag ON tags(tag);
`,
	},
	{
		Version:     3,
		Description: "relations: typed directed edges between memories",
		SQL: `
CREATE TABLE relations (
    from_id       INTEGER NOT NULL,
    to_id         INTEGER NOT NULL,
    relation_type TEXT NOT NULL CHECK (relation_type IN ('contradicts', 'supports', 'refines', 'supersedes')),
    PRIMARY KEY (from_id, to_id, relation_type),
    FOREIGN KEY (from_id) REFERENCES memories(id),
    FOREIGN KEY (to_id)   REFERENCES memories(id)
);
`,
	},
	{
		Version:     4,
		Description: "memories_fts: full-text index over content, context, category",
		SQL: `
CREATE VIRTUAL TABLE memories_fts USING fts5(
    content, context, category,
    content='memories',
    content_rowid='id'
);

CREATE TRIGGER memories_fts_ai AFTER INSERT ON memories BEGIN
    INSERT INTO memories_fts(rowid, content, context, category)
    VALUES (new.id, new.content, new.context, new.category);
END;

CREATE TRIGGER memories_fts_ad AFTER DELETE ON memories BEGIN
    INSERT INTO memories_fts(memories_fts, rowid, content, context, category)
    VALUES ('delete', old.id, old.content, old.context, old.category);
END;

CREATE TRIGGER memories_fts_au AFTER UPDATE ON memories BEGIN
    INSERT INTO memories_fts(memories_fts, rowid, content, context, category)
    VALUES ('delete', old.id, old.content, old.context, old.category);
    INSERT INTO memories_fts(rowid, content, context, category)
    VALUES (new.id, new.content, new.context, new.category);
END;
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
