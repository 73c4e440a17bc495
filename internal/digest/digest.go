// Package digest renders a surfaced memory view as a markdown document.
// It is a pure formatting step: all scoring and selection has already
// happened in the engine.
package digest

import (
	"fmt"
	"strings"

	"github.com/engramdev/engram/internal/engine"
)

// DefaultMaxLines caps the rendered document length.
const DefaultMaxLines = 120

const header = `# Engram Memories
# Auto-generated at session start. Do not edit manually.

`

// sections defines the render order and titles. Preferences and
// corrections come first so they are never truncated away.
var sections = []struct {
	Category string
	Title    string
}{
	{"preferences", "Preferences"},
	{"corrections", "Corrections (Do Not Repeat)"},
	{"facts", "Key Facts"},
	{"decisions", "Past Decisions"},
	{"procedures", "Known Procedures"},
	{"relationships", "Relationships"},
}

// Render produces the markdown digest for a surfaced view, truncated to
// maxLines (<= 0 uses DefaultMaxLines).
func Render(v *engine.SurfaceView, maxLines int) string {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}

	var b strings.Builder
	b.WriteString(header)

	for _, s := range sections {
		writeSection(&b, s.Title, v.Sections[s.Category])

		// The project section slots in after the key facts.
		if s.Category == "facts" && v.Project != "" && len(v.ProjectRows) > 0 {
			fmt.Fprintf(&b, "## Current Project: %s\n\n", v.Project)
			for _, m := range v.ProjectRows {
				fmt.Fprintf(&b, "- [%s] %s\n", m.Category, m.Content)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "---\n*Engram: %d memories stored.*\n", v.TotalActive)

	return truncateLines(b.String(), maxLines)
}

func writeSection(b *strings.Builder, title string, items []engine.ScoredMemory) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, m := range items {
		fmt.Fprintf(b, "- %s\n", m.Content)
	}
	b.WriteString("\n")
}

func truncateLines(s string, maxLines int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= maxLines {
		return s
	}
	return strings.Join(lines[:maxLines], "\n") + "\n"
}
