package digest

import (
	"strings"
	"testing"
	"time"

	"github.com/engramdev/engram/internal/engine"
	"github.com/engramdev/engram/internal/store"
)

func scored(category, content string) engine.ScoredMemory {
	return engine.ScoredMemory{
		Memory: store.Memory{Category: category, Content: content},
		Score:  0.5,
	}
}

func TestRenderSections(t *testing.T) {
	v := &engine.SurfaceView{
		Generated: time.Now(),
		Sections: map[string][]engine.ScoredMemory{
			"preferences": {scored("preferences", "tabs not spaces")},
			"corrections": {scored("corrections", "port is 37707, not 8080")},
			"facts":       {scored("facts", "ci is github actions")},
		},
		TotalActive: 3,
	}

	out := Render(v, 0)

	if !strings.HasPrefix(out, "# Engram Memories") {
		t.Errorf("missing header:\n%s", out)
	}
	for _, want := range []string{
		"## Preferences",
		"## Corrections (Do Not Repeat)",
		"## Key Facts",
		"- tabs not spaces",
		"*Engram: 3 memories stored.*",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// Preferences render before corrections, corrections before facts.
	if strings.Index(out, "## Preferences") > strings.Index(out, "## Corrections") {
		t.Error("preferences should render first")
	}

	// Empty sections are skipped entirely.
	if strings.Contains(out, "## Past Decisions") {
		t.Error("empty section rendered")
	}
}

func TestRenderProjectSection(t *testing.T) {
	v := &engine.SurfaceView{
		Project: "engram",
		Sections: map[string][]engine.ScoredMemory{
			"facts": {scored("facts", "a key fact")},
		},
		ProjectRows: []engine.ScoredMemory{scored("project-knowledge", "db lives in ~/.engram")},
		TotalActive: 2,
	}

	out := Render(v, 0)
	if !strings.Contains(out, "## Current Project: engram") {
		t.Errorf("missing project section:\n%s", out)
	}
	if !strings.Contains(out, "- [project-knowledge] db lives in ~/.engram") {
		t.Errorf("missing project row:\n%s", out)
	}

	// Project section slots in after key facts.
	if strings.Index(out, "## Key Facts") > strings.Index(out, "## Current Project") {
		t.Error("project section should follow key facts")
	}
}

func TestRenderTruncates(t *testing.T) {
	items := make([]engine.ScoredMemory, 50)
	for i := range items {
		items[i] = scored("facts", "a fact that takes a line")
	}
	v := &engine.SurfaceView{
		Sections:    map[string][]engine.ScoredMemory{"facts": items},
		TotalActive: 50,
	}

	out := Render(v, 10)
	if n := strings.Count(out, "\n"); n > 10 {
		t.Errorf("rendered %d lines, want at most 10", n)
	}
}
