package store

import (
	"path/filepath"
	"testing"
)

func TestOpenCreatesDirAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "engram.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	version, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("schema version = %d, want %d", version, len(migrations))
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db := testDB(t)

	// Re-running migrations against an up-to-date schema changes nothing.
	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	version, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("schema version = %d, want %d", version, len(migrations))
	}
}
