package engine

import (
	"log"
	"sort"
	"time"

	"github.com/engramdev/engram/internal/store"
)

// Consolidation thresholds. Retirement sits below the decay floor on
// purpose: a record must be decayed repeatedly (or created near zero)
// and stay unaccessed for a full quarter before it leaves default views.
const (
	decayAfter  = 30 * 24 * time.Hour
	decayFloor  = 0.1
	decayFactor = 0.9

	retireAfter = 90 * 24 * time.Hour
	retireBelow = 0.1
)

// SweepStats reports what one consolidation pass changed.
type SweepStats struct {
	Decayed int
	Retired int
	Merged  int
}

// Sweep runs the three-pass consolidation over the entire active set:
//
//  1. Decay: importance *= 0.9 for active records with zero accesses,
//     no write in 30 days, and importance still above 0.1. The decay
//     itself counts as a write, so each record decays at most once per
//     30-day window.
//  2. Retirement: active records with importance < 0.1, zero accesses,
//     and age >= 90 days transition to retired (sentinel form).
//  3. Deduplication: active records grouped by normalized content;
//     each group keeps the member with the highest (access_count,
//     importance), lowest id on a full tie, and supersedes the rest.
//
// The order matters: records retired in passes 1-2 are excluded from
// the dedup pool. Each pass is a sequence of individually atomic row
// updates, never a table-wide lock, so a concurrent reader may observe
// a half-finished sweep; repeated sweeps converge to the same fixed
// point, so running it twice in a row changes nothing the second time.
func (e *Engine) Sweep(now time.Time) (SweepStats, error) {
	var stats SweepStats

	decayed, err := e.DB.DecayIdle(now.Add(-decayAfter).UnixMilli(), decayFloor, decayFactor)
	if err != nil {
		return stats, err
	}
	stats.Decayed = decayed

	retired, err := e.DB.RetireDecayed(now.Add(-retireAfter).UnixMilli(), retireBelow)
	if err != nil {
		return stats, err
	}
	stats.Retired = retired

	merged, err := e.dedupActive()
	if err != nil {
		return stats, err
	}
	stats.Merged = merged

	return stats, nil
}

// dedupActive collapses exact-content duplicates among active records.
func (e *Engine) dedupActive() (int, error) {
	active, err := e.DB.ListActive()
	if err != nil {
		return 0, err
	}

	groups := make(map[string][]store.Memory)
	for _, m := range active {
		key := store.NormalizeContent(m.Content)
		groups[key] = append(groups[key], m)
	}

	merged := 0
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}

		// Keeper: max (access_count, importance), then lowest id.
		sort.Slice(group, func(i, j int) bool {
			if group[i].AccessCount != group[j].AccessCount {
				return group[i].AccessCount > group[j].AccessCount
			}
			if group[i].Importance != group[j].Importance {
				return group[i].Importance > group[j].Importance
			}
			return group[i].ID < group[j].ID
		})

		keeper := group[0]
		for _, dup := range group[1:] {
			ok, err := e.DB.MarkSuperseded(dup.ID, keeper.ID)
			if err != nil {
				return merged, err
			}
			if ok {
				merged++
			}
		}
	}
	return merged, nil
}

// RunSweep runs a sweep at a maintenance boundary. Store failures here
// degrade to a skipped cycle: they are logged, never propagated to a
// caller, because the next sweep converges to the same result.
func (e *Engine) RunSweep() {
	stats, err := e.Sweep(time.Now())
	if err != nil {
		log.Printf("consolidate: sweep skipped: %v", err)
		return
	}
	if stats.Decayed > 0 || stats.Retired > 0 || stats.Merged > 0 {
		log.Printf("consolidate: decayed %d, retired %d, merged %d",
			stats.Decayed, stats.Retired, stats.Merged)
	}
}
