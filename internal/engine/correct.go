package engine

import (
	"fmt"

	"github.com/engramdev/engram/internal/store"
)

// Correction constants: a correction is asserted with high certainty
// regardless of what the original claimed.
const (
	correctionMinImportance = 0.7
	correctionConfidence    = 0.9
)

// Correct supersedes an existing memory with new content. The new
// record clones the old one's category, project, and tags, takes
// importance = max(old importance, 0.7) and confidence 0.9, and is
// linked to the old record by a supersedes edge (new -> old).
//
// Correcting a record that is already superseded or retired is allowed:
// the correction chain simply extends from it, and only records that
// are still active get flipped to superseded. The old record is only
// marked superseded after the replacement exists, so a failure partway
// through never leaves a record pointing at nothing.
func (e *Engine) Correct(id int64, newContent, reason, session string) (*store.Memory, error) {
	old, err := e.DB.GetMemory(id)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, fmt.Errorf("memory #%d: %w", id, store.ErrNotFound)
	}

	importance := old.Importance
	if importance < correctionMinImportance {
		importance = correctionMinImportance
	}
	context := reason
	if context == "" {
		context = fmt.Sprintf("Correction of #%d", id)
	}

	replacement := &store.Memory{
		Category:      old.Category,
		Content:       newContent,
		Context:       context,
		Project:       old.Project,
		Importance:    importance,
		Confidence:    correctionConfidence,
		SourceSession: session,
	}
	if err := e.DB.CreateMemory(replacement); err != nil {
		return nil, err
	}

	if err := e.DB.CopyTags(old.ID, replacement.ID); err != nil {
		return nil, err
	}
	if err := e.DB.AddRelation(replacement.ID, old.ID, "supersedes"); err != nil {
		return nil, err
	}

	if _, err := e.DB.MarkSuperseded(old.ID, replacement.ID); err != nil {
		return nil, err
	}
	return replacement, nil
}

// Forget retires an active memory with its own id as the sentinel.
// Records that are already superseded or retired report not-found and
// are left untouched.
func (e *Engine) Forget(id int64) (*store.Memory, error) {
	m, err := e.DB.GetMemory(id)
	if err != nil {
		return nil, err
	}
	if m == nil || m.State() != store.StateActive {
		return nil, fmt.Errorf("memory #%d: %w", id, store.ErrNotFound)
	}

	ok, err := e.DB.Retire(id, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with another forget or a sweep.
		return nil, fmt.Errorf("memory #%d: %w", id, store.ErrNotFound)
	}
	return m, nil
}

// Relate creates a typed edge between two existing memories. Both
// endpoints must exist (in any lifecycle state). Inserting the same
// edge twice is a silent no-op.
func (e *Engine) Relate(fromID, toID int64, relType string) error {
	if !store.ValidRelations[relType] {
		return fmt.Errorf("%w: %q", store.ErrInvalidRelation, relType)
	}
	for _, id := range []int64{fromID, toID} {
		exists, err := e.DB.MemoryExists(id)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("memory #%d: %w", id, store.ErrNotFound)
		}
	}
	return e.DB.AddRelation(fromID, toID, relType)
}
