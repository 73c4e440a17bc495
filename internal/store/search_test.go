package store

import (
	"testing"
)

func TestSearchMemories(t *testing.T) {
	db := testDB(t)
	mustCreate(t, db, &Memory{Category: "preferences", Content: "prefers tabs for indentation", Importance: 0.8, Confidence: 0.9})
	mustCreate(t, db, &Memory{Category: "facts", Content: "deploys with docker compose", Importance: 0.5, Confidence: 0.8})

	hits, err := db.SearchMemories("tabs", SearchOpts{})
	if err != nil {
		t.Fatalf("SearchMemories: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].Category != "preferences" {
		t.Errorf("hit category = %s, want preferences", hits[0].Category)
	}
}

func TestSearchExcludesInactiveByDefault(t *testing.T) {
	db := testDB(t)
	old := mustCreate(t, db, &Memory{Category: "facts", Content: "database is postgres", Importance: 0.5, Confidence: 0.8})
	repl := mustCreate(t, db, &Memory{Category: "facts", Content: "database is sqlite actually", Importance: 0.7, Confidence: 0.9})
	if _, err := db.MarkSuperseded(old.ID, repl.ID); err != nil {
		t.Fatalf("MarkSuperseded: %v", err)
	}

	hits, err := db.SearchMemories("database", SearchOpts{})
	if err != nil {
		t.Fatalf("SearchMemories: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != repl.ID {
		t.Fatalf("got %d hits, want only the replacement", len(hits))
	}

	hits, err = db.SearchMemories("database", SearchOpts{IncludeRetired: true})
	if err != nil {
		t.Fatalf("SearchMemories: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("got %d hits with IncludeRetired, want 2", len(hits))
	}
}

func TestSearchFilters(t *testing.T) {
	db := testDB(t)
	mustCreate(t, db, &Memory{Category: "facts", Content: "release checklist lives in wiki", Project: "engram", Importance: 0.5, Confidence: 0.8})
	mustCreate(t, db, &Memory{Category: "procedures", Content: "release process needs two approvals", Project: "other", Importance: 0.5, Confidence: 0.8})
	mustCreate(t, db, &Memory{Category: "facts", Content: "release notes are generated", Importance: 0.5, Confidence: 0.8})

	hits, err := db.SearchMemories("release", SearchOpts{Category: "facts"})
	if err != nil {
		t.Fatalf("SearchMemories: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("category filter: got %d hits, want 2", len(hits))
	}

	// Project filter matches the project plus global memories.
	hits, err = db.SearchMemories("release", SearchOpts{Project: "engram"})
	if err != nil {
		t.Fatalf("SearchMemories: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("project filter: got %d hits, want 2", len(hits))
	}
}

func TestSearchIndexFollowsUpdates(t *testing.T) {
	db := testDB(t)
	m := mustCreate(t, db, &Memory{Category: "facts", Content: "uses yarn for builds", Importance: 0.5, Confidence: 0.8})

	if _, err := db.Exec("UPDATE memories SET content = 'uses pnpm for builds' WHERE id = ?", m.ID); err != nil {
		t.Fatalf("update content: %v", err)
	}

	hits, err := db.SearchMemories("yarn", SearchOpts{})
	if err != nil {
		t.Fatalf("SearchMemories: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("stale term still matches %d hits", len(hits))
	}

	hits, err = db.SearchMemories("pnpm", SearchOpts{})
	if err != nil {
		t.Fatalf("SearchMemories: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("new term matches %d hits, want 1", len(hits))
	}
}
