package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Lifecycle states derived from the superseded_by column.
type State string

const (
	StateActive     State = "active"
	StateSuperseded State = "superseded"
	StateRetired    State = "retired"
)

// RetiredSentinel marks a record retired by the consolidation sweep
// (no replacement). Explicit forget uses the record's own id instead.
const RetiredSentinel int64 = -1

// Sentinel errors for the store contract.
var (
	ErrNotFound        = errors.New("memory not found")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidRelation = errors.New("invalid relation type")
	ErrNotActive       = errors.New("memory is not active")
	ErrEmptyContent    = errors.New("empty content")
)

// ValidCategories is the fixed category enumeration.
var ValidCategories = map[string]bool{
	"preferences":       true,
	"facts":             true,
	"corrections":       true,
	"decisions":         true,
	"project-knowledge": true,
	"relationships":     true,
	"procedures":        true,
}

// Memory is a single stored record. Timestamps are Unix milliseconds.
// Project "" means global. SupersededBy nil means active.
type Memory struct {
	ID            int64   `json:"id"`
	Category      string  `json:"category"`
	Content       string  `json:"content"`
	Context       string  `json:"context,omitempty"`
	Project       string  `json:"project,omitempty"`
	Importance    float64 `json:"importance"`
	Confidence    float64 `json:"confidence"`
	AccessCount   int     `json:"access_count"`
	LastAccessed  *int64  `json:"last_accessed,omitempty"`
	CreatedAt     int64   `json:"created_at"`
	UpdatedAt     int64   `json:"updated_at"`
	SourceSession string  `json:"source_session,omitempty"`
	SupersededBy  *int64  `json:"superseded_by,omitempty"`
}

// State derives the lifecycle state from the superseded_by field.
func (m *Memory) State() State {
	switch {
	case m.SupersededBy == nil:
		return StateActive
	case *m.SupersededBy == m.ID || *m.SupersededBy < 0:
		return StateRetired
	default:
		return StateSuperseded
	}
}

// NormalizeContent returns the semantic deduplication key for content:
// lower-cased, whitespace-trimmed.
func NormalizeContent(content string) string {
	return strings.ToLower(strings.TrimSpace(content))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

const memoryColumns = `id, category, content, context, project, importance, confidence,
	access_count, last_accessed, created_at, updated_at, source_session, superseded_by`

// CreateMemory validates and inserts a new active memory, assigning its id
// and timestamps. Importance and confidence are clamped into [0,1].
// A caller-provided CreatedAt is honored (import paths); zero means now.
func (db *DB) CreateMemory(m *Memory) error {
	if !ValidCategories[m.Category] {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, m.Category)
	}
	if strings.TrimSpace(m.Content) == "" {
		return ErrEmptyContent
	}

	m.Importance = clamp01(m.Importance)
	m.Confidence = clamp01(m.Confidence)

	if m.CreatedAt == 0 {
		m.CreatedAt = time.Now().UnixMilli()
	}
	m.UpdatedAt = m.CreatedAt

	result, err := db.Exec(`
		INSERT INTO memories (category, content, context, project, importance, confidence,
			access_count, created_at, updated_at, source_session)
		VALUES (?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, ?, 0, ?, ?, NULLIF(?, ''))
	`, m.Category, m.Content, m.Context, m.Project, m.Importance, m.Confidence,
		m.CreatedAt, m.UpdatedAt, m.SourceSession)
	if err != nil {
		return fmt.Errorf("create memory: %w", err)
	}

	id, _ := result.LastInsertId()
	m.ID = id
	m.AccessCount = 0
	m.SupersededBy = nil
	return nil
}

// GetMemory returns a memory by id regardless of lifecycle state,
// or nil if no such record exists.
func (db *DB) GetMemory(id int64) (*Memory, error) {
	row := db.QueryRow(`SELECT `+memoryColumns+` FROM memories WHERE id = ?`, id)
	m, err := scanMemoryRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get memory: %w", err)
	}
	return m, nil
}

// TouchMemory records one successful retrieval: increments access_count
// and stamps last_accessed. The increment is a single atomic UPDATE, so
// concurrent retrievals never lose counts.
func (db *DB) TouchMemory(id int64) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		UPDATE memories SET access_count = access_count + 1, last_accessed = ?, updated_at = ?
		WHERE id = ?
	`, now, now, id)
	if err != nil {
		return fmt.Errorf("touch memory: %w", err)
	}
	return nil
}

// ListOpts filters and orders an active-memory listing.
type ListOpts struct {
	Category string
	Project  string // matches this project plus global memories
	Sort     string // score, recency, importance, accessed (default score)
	Limit    int
}

// sortOrders maps sort names to ORDER BY clauses. The score order uses
// the frequency-boosted base score; the full time-decayed score is a
// read-path computation in the engine.
var sortOrders = map[string]string{
	"score":      "importance * confidence * (1.0 + access_count * 0.1) DESC",
	"recency":    "created_at DESC",
	"importance": "importance DESC",
	"accessed":   "access_count DESC",
}

// ListMemories returns active memories matching the filter.
func (db *DB) ListMemories(opts ListOpts) ([]Memory, error) {
	conditions := []string{"superseded_by IS NULL"}
	var args []any
	if opts.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, opts.Category)
	}
	if opts.Project != "" {
		conditions = append(conditions, "(project = ? OR project IS NULL)")
		args = append(args, opts.Project)
	}

	order, ok := sortOrders[opts.Sort]
	if !ok {
		order = sortOrders["score"]
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT %s FROM memories WHERE %s ORDER BY %s LIMIT ?`,
		memoryColumns, strings.Join(conditions, " AND "), order)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

// ListActive returns every active memory, unordered. Used by the
// consolidation sweep and the surface view, which score in Go.
func (db *DB) ListActive() ([]Memory, error) {
	rows, err := db.Query(`SELECT ` + memoryColumns + ` FROM memories WHERE superseded_by IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("list active: %w", err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

// MarkSuperseded points a memory at its replacement. The update is
// guarded on the record still being active so two concurrent sweeps
// cannot re-point an already superseded record.
func (db *DB) MarkSuperseded(id, byID int64) (bool, error) {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		UPDATE memories SET superseded_by = ?, updated_at = ?
		WHERE id = ? AND superseded_by IS NULL
	`, byID, now, id)
	if err != nil {
		return false, fmt.Errorf("mark superseded: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// Retire transitions an active memory to retired using the given
// sentinel (the record's own id for explicit forget, RetiredSentinel
// for decay-driven retirement). Returns false if the record was not
// active.
func (db *DB) Retire(id, sentinel int64) (bool, error) {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		UPDATE memories SET superseded_by = ?, updated_at = ?
		WHERE id = ? AND superseded_by IS NULL
	`, sentinel, now, id)
	if err != nil {
		return false, fmt.Errorf("retire memory: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// DecayIdle multiplies importance by factor for every active memory
// that has never been accessed, was last written before cutoff, and
// still sits above floor. Decay stamps updated_at, so a record decays
// at most once per cutoff window: an immediate second pass with the
// same cutoff is a no-op. Returns the number of rows decayed.
func (db *DB) DecayIdle(cutoff int64, floor, factor float64) (int, error) {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		UPDATE memories SET importance = importance * ?, updated_at = ?
		WHERE superseded_by IS NULL
		  AND access_count = 0
		  AND updated_at < ?
		  AND importance > ?
	`, factor, now, cutoff, floor)
	if err != nil {
		return 0, fmt.Errorf("decay idle: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

// RetireDecayed retires (sentinel form) every active memory whose
// importance has fallen below threshold with no access and a creation
// time before cutoff. Returns the number of rows retired.
func (db *DB) RetireDecayed(cutoff int64, threshold float64) (int, error) {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		UPDATE memories SET superseded_by = ?, updated_at = ?
		WHERE superseded_by IS NULL
		  AND importance < ?
		  AND access_count = 0
		  AND created_at < ?
	`, RetiredSentinel, now, threshold, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retire decayed: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

// MemoryExists reports whether a record with the given id exists in any
// lifecycle state.
func (db *DB) MemoryExists(id int64) (bool, error) {
	var one int
	err := db.QueryRow("SELECT 1 FROM memories WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("memory exists: %w", err)
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanMemoryRow scans one memories row. Extra destinations (e.g. an
// FTS rank column) are appended after the fixed column set.
func scanMemoryRow(row rowScanner, extra ...any) (*Memory, error) {
	var m Memory
	var context, project, sourceSession sql.NullString
	var lastAccessed, supersededBy sql.NullInt64
	dest := []any{&m.ID, &m.Category, &m.Content, &context, &project,
		&m.Importance, &m.Confidence, &m.AccessCount, &lastAccessed,
		&m.CreatedAt, &m.UpdatedAt, &sourceSession, &supersededBy}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	m.Context = context.String
	m.Project = project.String
	m.SourceSession = sourceSession.String
	if lastAccessed.Valid {
		m.LastAccessed = &lastAccessed.Int64
	}
	if supersededBy.Valid {
		m.SupersededBy = &supersededBy.Int64
	}
	return &m, nil
}

func scanMemories(rows *sql.Rows) ([]Memory, error) {
	var memories []Memory
	for rows.Next() {
		m, err := scanMemoryRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		memories = append(memories, *m)
	}
	return memories, rows.Err()
}
