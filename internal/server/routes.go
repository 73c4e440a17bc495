package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/engramdev/engram/internal/digest"
	"github.com/engramdev/engram/internal/engine"
	"github.com/engramdev/engram/internal/store"
	"github.com/go-chi/chi/v5"
)

// writeJSON encodes v with the right content type.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps store sentinel errors onto HTTP statuses. Validation
// and not-found results are normal caller-facing outcomes, never 500s.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrInvalidCategory),
		errors.Is(err, store.ErrInvalidRelation),
		errors.Is(err, store.ErrEmptyContent),
		errors.Is(err, store.ErrNotActive):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (s *Server) handleRemember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content    string   `json:"content"`
		Category   string   `json:"category"`
		Project    string   `json:"project"`
		Importance *float64 `json:"importance"`
		Confidence *float64 `json:"confidence"`
		Tags       []string `json:"tags"`
		Context    string   `json:"context"`
		Session    string   `json:"session"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	// Boundary defaults; the engine validates what remains.
	if req.Category == "" {
		req.Category = "facts"
	}
	importance := 0.5
	if req.Importance != nil {
		importance = *req.Importance
	}
	confidence := 0.8
	if req.Confidence != nil {
		confidence = *req.Confidence
	}

	m, err := s.engine.Remember(engine.RememberParams{
		Content:    req.Content,
		Category:   req.Category,
		Project:    req.Project,
		Importance: importance,
		Confidence: confidence,
		Tags:       req.Tags,
		Context:    req.Context,
		Session:    req.Session,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	memories, err := s.engine.List(store.ListOpts{
		Category: q.Get("category"),
		Project:  q.Get("project"),
		Sort:     q.Get("sort"),
		Limit:    limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"memories": memories})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	m, err := s.engine.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}

	tags, _ := s.db.TagsFor(id)
	relations, _ := s.db.RelationsFor(id)
	writeJSON(w, http.StatusOK, map[string]any{
		"memory":    m,
		"state":     m.State(),
		"tags":      tags,
		"relations": relations,
	})
}

func (s *Server) handleRecall(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "q parameter required"})
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	hits, err := s.engine.Recall(query, engine.RecallOpts{
		Category:        q.Get("category"),
		Project:         q.Get("project"),
		Limit:           limit,
		IncludeInactive: q.Get("include_inactive") == "true",
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hits": hits})
}

func (s *Server) handleCorrect(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		Content string `json:"content"`
		Reason  string `json:"reason"`
		Session string `json:"session"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	replacement, err := s.engine.Correct(id, req.Content, req.Reason, req.Session)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"superseded": id,
		"memory":     replacement,
	})
}

func (s *Server) handleForget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	m, err := s.engine.Forget(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"forgotten": m.ID,
		"content":   m.Content,
	})
}

func (s *Server) handleRelate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FromID int64  `json:"from_id"`
		ToID   int64  `json:"to_id"`
		Type   string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	if err := s.engine.Relate(req.FromID, req.ToID, req.Type); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "linked"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSurface(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	maxLines, _ := strconv.Atoi(q.Get("max_lines"))

	view, err := s.engine.Surface(engine.SurfaceOpts{Project: q.Get("project")}, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(digest.Render(view, maxLines)))
}

// handleSessionEnd is the maintenance boundary: it kicks off best-effort
// transcript extraction, then a consolidation sweep, both detached from
// the caller.
func (s *Server) handleSessionEnd(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		TranscriptPath string `json:"transcript_path"`
		Project        string `json:"project"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	go func() {
		if req.TranscriptPath != "" && s.engine.LLM != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
			defer cancel()
			if err := s.engine.ExtractSession(ctx, sessionID, req.TranscriptPath, req.Project); err != nil {
				log.Printf("extraction failed for %s: %v", sessionID, err)
			}
		}
		s.engine.RunSweep()
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "consolidating"})
}
