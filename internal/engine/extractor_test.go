package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/engramdev/engram/internal/llm"
	"github.com/engramdev/engram/internal/store"
)

func writeTranscript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
	return path
}

func longTranscript() string {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString(`{"type":"user","message":"please always run gofmt before committing, and use table-driven tests"}` + "\n")
	}
	return b.String()
}

func TestExtractSession(t *testing.T) {
	db := testDB(t)

	mock := &llm.MockClient{Response: &llm.Response{
		Content: "```json\n" + `[
			{"content": "Always run gofmt before committing", "category": "preferences", "importance": 0.8, "confidence": 0.9, "tags": ["go", "formatting"]},
			{"content": "Use table-driven tests", "category": "unheard-of", "importance": 0.6}
		]` + "\n```",
		Provider: "mock",
	}}

	eng := New(db, mock)
	err := eng.ExtractSession(context.Background(), "sess-1", writeTranscript(t, longTranscript()), "engram")
	if err != nil {
		t.Fatalf("ExtractSession: %v", err)
	}
	if len(mock.Calls) != 1 {
		t.Fatalf("LLM called %d times, want 1", len(mock.Calls))
	}

	memories, err := db.ListActive()
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(memories) != 2 {
		t.Fatalf("stored %d memories, want 2", len(memories))
	}
	for _, m := range memories {
		if m.SourceSession != "sess-1" {
			t.Errorf("source_session = %q, want sess-1", m.SourceSession)
		}
		if m.Project != "engram" {
			t.Errorf("project = %q, want engram", m.Project)
		}
	}

	// Unknown category falls back to facts; zero confidence gets a default.
	var fallback *store.Memory
	for i := range memories {
		if memories[i].Content == "Use table-driven tests" {
			fallback = &memories[i]
		}
	}
	if fallback == nil {
		t.Fatal("fallback candidate not stored")
	}
	if fallback.Category != "facts" {
		t.Errorf("category = %s, want facts", fallback.Category)
	}
	if fallback.Confidence != 0.8 {
		t.Errorf("confidence = %v, want default 0.8", fallback.Confidence)
	}
}

func TestExtractSessionShortTranscript(t *testing.T) {
	db := testDB(t)
	mock := &llm.MockClient{Response: &llm.Response{Content: "[]"}}
	eng := New(db, mock)

	err := eng.ExtractSession(context.Background(), "sess-2", writeTranscript(t, "too short"), "")
	if err != nil {
		t.Fatalf("ExtractSession: %v", err)
	}
	if len(mock.Calls) != 0 {
		t.Errorf("LLM called %d times for a trivial transcript, want 0", len(mock.Calls))
	}
}

func TestExtractSessionNoLLM(t *testing.T) {
	db := testDB(t)
	eng := New(db, nil)

	err := eng.ExtractSession(context.Background(), "sess-3", "/nonexistent", "")
	if err == nil {
		t.Error("expected error without an LLM client")
	}
}

func TestExtractSessionCapsCandidates(t *testing.T) {
	db := testDB(t)

	items := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		items = append(items, `{"content": "a distinct durable fact number `+strings.Repeat("x", i+1)+`", "category": "facts"}`)
	}
	mock := &llm.MockClient{Response: &llm.Response{Content: "[" + strings.Join(items, ",") + "]"}}

	eng := New(db, mock)
	if err := eng.ExtractSession(context.Background(), "sess-4", writeTranscript(t, longTranscript()), ""); err != nil {
		t.Fatalf("ExtractSession: %v", err)
	}

	memories, err := db.ListActive()
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(memories) != maxCandidates {
		t.Errorf("stored %d memories, want capped at %d", len(memories), maxCandidates)
	}
}

func TestParseCandidates(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"bare array", `[{"content": "x", "category": "facts"}]`, 1, false},
		{"fenced", "```json\n[{\"content\": \"x\"}]\n```", 1, false},
		{"prose wrapped", `Here are the memories: [{"content": "x"}] as requested.`, 1, false},
		{"no array", "I found nothing worth keeping.", 0, true},
		{"bad json", `[{"content": }]`, 0, true},
	}

	for _, tt := range tests {
		got, err := parseCandidates(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if len(got) != tt.want {
			t.Errorf("%s: got %d candidates, want %d", tt.name, len(got), tt.want)
		}
	}
}
