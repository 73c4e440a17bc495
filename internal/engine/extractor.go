package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/engramdev/engram/internal/llm"
	"github.com/engramdev/engram/internal/store"
)

// Extraction limits. The tail keeps LLM cost low; the caps keep a noisy
// response from flooding the store.
const (
	transcriptTailBytes = 4000
	minTranscriptChars  = 200
	maxCandidates       = 5
	minCandidateChars   = 10
	maxCandidateTags    = 5
)

// candidate is the JSON structure the extraction LLM returns.
type candidate struct {
	Content    string   `json:"content"`
	Category   string   `json:"category"`
	Importance float64  `json:"importance"`
	Confidence float64  `json:"confidence"`
	Tags       []string `json:"tags"`
}

// ExtractSession reads the tail of a session transcript, asks the LLM
// for memories worth keeping, and inserts them as new active records.
//
// The whole pipeline is best-effort: any failure — unreadable
// transcript, LLM error, unparseable response, a bad candidate — is
// logged and discarded. Nothing here ever surfaces to or retries from
// the lifecycle engine. The returned error exists for the caller's log
// line only.
func (e *Engine) ExtractSession(ctx context.Context, sessionID, transcriptPath, project string) error {
	if e.LLM == nil {
		return fmt.Errorf("LLM not configured")
	}

	excerpt, err := transcriptTail(transcriptPath)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}
	if len(strings.TrimSpace(excerpt)) < minTranscriptChars {
		log.Printf("extraction: skipping %s — transcript too short", sessionID)
		return nil
	}

	resp, err := e.LLM.Complete(ctx, llm.ExtractionPrompt(excerpt))
	if err != nil {
		return fmt.Errorf("llm extraction: %w", err)
	}

	candidates, err := parseCandidates(resp.Content)
	if err != nil {
		return fmt.Errorf("parse extraction response: %w", err)
	}
	if len(candidates) > maxCandidates {
		log.Printf("extraction: capping %d candidates to %d for %s",
			len(candidates), maxCandidates, sessionID)
		candidates = candidates[:maxCandidates]
	}

	stored := 0
	for _, c := range candidates {
		c, err := normalizeCandidate(c)
		if err != nil {
			log.Printf("extraction: rejecting candidate: %v", err)
			continue
		}

		m, err := e.Remember(RememberParams{
			Content:    c.Content,
			Category:   c.Category,
			Project:    project,
			Importance: c.Importance,
			Confidence: c.Confidence,
			Tags:       c.Tags,
			Context:    "Auto-extracted",
			Session:    sessionID,
		})
		if err != nil {
			log.Printf("extraction: failed to store candidate: %v", err)
			continue
		}
		log.Printf("extraction: stored #%d [%s]", m.ID, m.Category)
		stored++
	}

	if stored > 0 {
		log.Printf("extraction: %s produced %d memories", sessionID, stored)
	}
	return nil
}

// normalizeCandidate clamps and defaults a raw candidate. Unknown
// categories become "facts" rather than rejecting the batch; too-short
// content is rejected.
func normalizeCandidate(c candidate) (candidate, error) {
	c.Content = strings.TrimSpace(c.Content)
	if len(c.Content) < minCandidateChars {
		return c, fmt.Errorf("content too short (%d chars)", len(c.Content))
	}
	if !store.ValidCategories[c.Category] {
		c.Category = "facts"
	}
	if c.Importance == 0 {
		c.Importance = 0.5
	}
	if c.Confidence == 0 {
		c.Confidence = 0.8
	}
	if len(c.Tags) > maxCandidateTags {
		c.Tags = c.Tags[:maxCandidateTags]
	}
	return c, nil
}

// parseCandidates extracts a JSON array from the LLM response, which
// may be wrapped in markdown code fences or surrounding prose.
func parseCandidates(content string) ([]candidate, error) {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		if len(lines) > 2 {
			content = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}
	content = strings.TrimSpace(content)

	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var candidates []candidate
	if err := json.Unmarshal([]byte(content[start:end+1]), &candidates); err != nil {
		return nil, fmt.Errorf("unmarshal candidates: %w", err)
	}
	return candidates, nil
}

// transcriptTail reads the last transcriptTailBytes of a transcript file.
func transcriptTail(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if len(data) > transcriptTailBytes {
		data = data[len(data)-transcriptTailBytes:]
	}
	return string(data), nil
}
