package engine

import (
	"math"
	"time"

	"github.com/engramdev/engram/internal/store"
)

// Scoring constants. The hourly decay base gives roughly 0.236 after 30
// days — a gentle half-life on the order of weeks, so long-unused but
// important facts stay recallable.
const (
	freqBoostPerAccess = 0.1
	hourlyDecayBase    = 0.998
	fallbackDecay      = 0.5
)

// Score computes the composite relevance of a memory at the given time:
//
//	importance * confidence * (1 + access_count*0.1) * 0.998^age_hours
//
// A missing or malformed creation timestamp falls back to a decay factor
// of 0.5 (moderately stale) instead of failing the ranking. Pure: no
// side effects, bit-for-bit reproducible for the same inputs.
func Score(m *store.Memory, now time.Time) float64 {
	freqBoost := 1.0 + float64(m.AccessCount)*freqBoostPerAccess

	decay := fallbackDecay
	if m.CreatedAt > 0 {
		ageHours := now.Sub(time.UnixMilli(m.CreatedAt)).Hours()
		if ageHours < 0 {
			ageHours = 0
		}
		decay = math.Pow(hourlyDecayBase, ageHours)
	}

	return m.Importance * m.Confidence * freqBoost * decay
}
