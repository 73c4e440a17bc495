package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/engramdev/engram/internal/store"
)

func TestSurfacePartitionsByCategory(t *testing.T) {
	db := testDB(t)
	eng := New(db, nil)

	seed(t, db, &store.Memory{Category: "preferences", Content: "tabs not spaces", Importance: 0.8, Confidence: 0.9})
	seed(t, db, &store.Memory{Category: "facts", Content: "ci is github actions", Importance: 0.5, Confidence: 0.8})
	seed(t, db, &store.Memory{Category: "facts", Content: "db is sqlite", Importance: 0.7, Confidence: 0.9})

	view, err := eng.Surface(SurfaceOpts{}, time.Now())
	if err != nil {
		t.Fatalf("Surface: %v", err)
	}

	if view.TotalActive != 3 {
		t.Errorf("TotalActive = %d, want 3", view.TotalActive)
	}
	if len(view.Sections["preferences"]) != 1 {
		t.Errorf("preferences section has %d rows, want 1", len(view.Sections["preferences"]))
	}
	facts := view.Sections["facts"]
	if len(facts) != 2 {
		t.Fatalf("facts section has %d rows, want 2", len(facts))
	}
	if facts[0].Score < facts[1].Score {
		t.Error("section rows not sorted by score descending")
	}
}

func TestSurfaceRespectsCaps(t *testing.T) {
	db := testDB(t)
	eng := New(db, nil)

	for i := 0; i < 10; i++ {
		seed(t, db, &store.Memory{Category: "decisions", Content: fmt.Sprintf("decision %d", i), Importance: 0.5, Confidence: 0.8})
	}

	view, err := eng.Surface(SurfaceOpts{Caps: map[string]int{"decisions": 3}}, time.Now())
	if err != nil {
		t.Fatalf("Surface: %v", err)
	}
	if len(view.Sections["decisions"]) != 3 {
		t.Errorf("decisions section has %d rows, want capped at 3", len(view.Sections["decisions"]))
	}
	if view.TotalActive != 10 {
		t.Errorf("TotalActive = %d, want 10 regardless of caps", view.TotalActive)
	}
}

func TestSurfaceProjectRows(t *testing.T) {
	db := testDB(t)
	eng := New(db, nil)

	seed(t, db, &store.Memory{Category: "project-knowledge", Content: "engram uses port 37707", Project: "engram", Importance: 0.6, Confidence: 0.9})
	seed(t, db, &store.Memory{Category: "preferences", Content: "prefers short commits", Project: "engram", Importance: 0.8, Confidence: 0.9})
	seed(t, db, &store.Memory{Category: "facts", Content: "unrelated project detail", Project: "other", Importance: 0.5, Confidence: 0.8})

	view, err := eng.Surface(SurfaceOpts{Project: "engram"}, time.Now())
	if err != nil {
		t.Fatalf("Surface: %v", err)
	}

	// Preferences surface globally, never in the project section.
	if len(view.ProjectRows) != 1 {
		t.Fatalf("ProjectRows has %d rows, want 1", len(view.ProjectRows))
	}
	if view.ProjectRows[0].Category != "project-knowledge" {
		t.Errorf("project row category = %s", view.ProjectRows[0].Category)
	}
}

func TestSurfaceExcludesInactive(t *testing.T) {
	db := testDB(t)
	eng := New(db, nil)

	m := seed(t, db, &store.Memory{Category: "facts", Content: "soon forgotten", Importance: 0.5, Confidence: 0.8})
	if _, err := db.Retire(m.ID, m.ID); err != nil {
		t.Fatalf("Retire: %v", err)
	}

	view, err := eng.Surface(SurfaceOpts{}, time.Now())
	if err != nil {
		t.Fatalf("Surface: %v", err)
	}
	if view.TotalActive != 0 {
		t.Errorf("TotalActive = %d, want 0", view.TotalActive)
	}
	if len(view.Sections) != 0 {
		t.Errorf("sections = %v, want empty", view.Sections)
	}
}
