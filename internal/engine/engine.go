package engine

import (
	"fmt"

	"github.com/engramdev/engram/internal/llm"
	"github.com/engramdev/engram/internal/store"
)

// Engine implements the memory lifecycle operations on top of the
// record store. It holds no state of its own beyond its collaborators;
// the store is the single source of truth.
type Engine struct {
	DB  *store.DB
	LLM llm.Client
}

// New creates a new Engine. The LLM client may be nil, in which case
// transcript extraction is disabled.
func New(db *store.DB, client llm.Client) *Engine {
	return &Engine{DB: db, LLM: client}
}

// RememberParams carries a new memory from a caller.
type RememberParams struct {
	Content    string
	Category   string
	Project    string
	Importance float64
	Confidence float64
	Tags       []string
	Context    string
	Session    string
}

// Remember validates and stores a new active memory with its tags.
// Unknown categories are rejected (callers may default before calling);
// importance and confidence are clamped into [0,1] by the store.
func (e *Engine) Remember(p RememberParams) (*store.Memory, error) {
	m := &store.Memory{
		Category:      p.Category,
		Content:       p.Content,
		Context:       p.Context,
		Project:       p.Project,
		Importance:    p.Importance,
		Confidence:    p.Confidence,
		SourceSession: p.Session,
	}
	if err := e.DB.CreateMemory(m); err != nil {
		return nil, err
	}
	if len(p.Tags) > 0 {
		if err := e.DB.AddTags(m.ID, p.Tags); err != nil {
			return nil, fmt.Errorf("tag memory %d: %w", m.ID, err)
		}
	}
	return m, nil
}

// Get returns a memory by id in any lifecycle state.
func (e *Engine) Get(id int64) (*store.Memory, error) {
	m, err := e.DB.GetMemory(id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("memory #%d: %w", id, store.ErrNotFound)
	}
	return m, nil
}

// List returns active memories per the store filter.
func (e *Engine) List(opts store.ListOpts) ([]store.Memory, error) {
	return e.DB.ListMemories(opts)
}

// RecallOpts filters a recall query.
type RecallOpts struct {
	Category        string
	Project         string
	Limit           int
	IncludeInactive bool
}

// Recall searches memories by keyword through the full-text oracle,
// re-applies lifecycle filtering on the oracle's results, and records
// one access per returned memory.
func (e *Engine) Recall(query string, opts RecallOpts) ([]store.SearchHit, error) {
	hits, err := e.DB.SearchMemories(query, store.SearchOpts{
		Category:       opts.Category,
		Project:        opts.Project,
		Limit:          opts.Limit,
		IncludeRetired: opts.IncludeInactive,
	})
	if err != nil {
		return nil, err
	}

	// The oracle is trusted for keyword relevance only; lifecycle state
	// is re-checked here before anything is returned or counted.
	filtered := hits[:0]
	for _, h := range hits {
		if !opts.IncludeInactive && h.State() != store.StateActive {
			continue
		}
		filtered = append(filtered, h)
	}

	for _, h := range filtered {
		if err := e.DB.TouchMemory(h.ID); err != nil {
			return nil, fmt.Errorf("record access for %d: %w", h.ID, err)
		}
	}
	return filtered, nil
}

// Stats returns store-wide statistics.
func (e *Engine) Stats() (*store.Stats, error) {
	return e.DB.CollectStats()
}
