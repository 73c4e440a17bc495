package engine

import (
	"sort"
	"time"

	"github.com/engramdev/engram/internal/store"
)

// defaultSectionCaps limits how many memories each category contributes
// to the surfaced view. Preferences and corrections get the most room;
// they are the sections that prevent repeated mistakes.
var defaultSectionCaps = map[string]int{
	"preferences":       8,
	"corrections":       5,
	"facts":             6,
	"decisions":         5,
	"procedures":        5,
	"relationships":     4,
	"project-knowledge": 8,
}

const defaultProjectCap = 8

// ScoredMemory pairs a memory with its composite score.
type ScoredMemory struct {
	store.Memory
	Score float64 `json:"score"`
}

// SurfaceOpts controls the surfaced view.
type SurfaceOpts struct {
	Project string         // current project, or "" for none
	Caps    map[string]int // per-category caps; nil uses defaults
}

// SurfaceView is a ranked, category-partitioned snapshot of the active
// set, ready for rendering.
type SurfaceView struct {
	Generated   time.Time                 `json:"generated"`
	Project     string                    `json:"project,omitempty"`
	Sections    map[string][]ScoredMemory `json:"sections"`
	ProjectRows []ScoredMemory            `json:"project_rows,omitempty"`
	TotalActive int                       `json:"total_active"`
}

// Surface scores every active memory and partitions the result by
// category, sorted by score descending and capped per category. When a
// project is given, a separate section collects that project's rows
// (excluding preferences and corrections, which always surface
// globally).
func (e *Engine) Surface(opts SurfaceOpts, now time.Time) (*SurfaceView, error) {
	active, err := e.DB.ListActive()
	if err != nil {
		return nil, err
	}

	scored := make([]ScoredMemory, 0, len(active))
	for _, m := range active {
		scored = append(scored, ScoredMemory{Memory: m, Score: Score(&m, now)})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ID < scored[j].ID
	})

	caps := opts.Caps
	if caps == nil {
		caps = defaultSectionCaps
	}

	view := &SurfaceView{
		Generated:   now,
		Project:     opts.Project,
		Sections:    map[string][]ScoredMemory{},
		TotalActive: len(active),
	}

	for _, sm := range scored {
		limit, ok := caps[sm.Category]
		if !ok {
			limit = defaultSectionCaps[sm.Category]
		}
		if len(view.Sections[sm.Category]) < limit {
			view.Sections[sm.Category] = append(view.Sections[sm.Category], sm)
		}

		if opts.Project != "" && sm.Memory.Project == opts.Project &&
			sm.Category != "preferences" && sm.Category != "corrections" &&
			len(view.ProjectRows) < defaultProjectCap {
			view.ProjectRows = append(view.ProjectRows, sm)
		}
	}

	return view, nil
}
