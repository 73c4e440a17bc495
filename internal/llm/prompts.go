package llm

import "fmt"

// ExtractionPrompt generates the prompt for memory extraction from a
// session transcript excerpt.
func ExtractionPrompt(transcript string) string {
	return fmt.Sprintf(`Analyze this coding session transcript excerpt.
Extract ONLY genuinely useful knowledge worth remembering across future sessions.

Categories (pick the best fit):
- preferences: User's explicit likes, dislikes, or preferences for how things should work
- corrections: When the user corrected an assumption, behavior, or mistake
- decisions: Technical or design decisions made, with rationale if available
- facts: Important facts about the user, their projects, tools, or environment
- procedures: Workflows, steps, or techniques that worked well
- project-knowledge: Architecture, patterns, conventions, or structure for a specific project
- relationships: Connections between concepts, people, tools, or projects

For each item, provide a JSON object with:
- content: Concise statement (1-2 sentences MAX). Write as a reusable fact, not as a narrative.
- category: One of the categories above
- importance: 0.0-1.0 (preferences/corrections: 0.7-0.9, decisions: 0.5-0.8, facts: 0.3-0.7)
- confidence: 0.0-1.0 (explicit statement: 0.9+, inferred: 0.6-0.8)
- tags: Array of 1-3 relevant keyword strings

Return ONLY a JSON array. If nothing worth remembering, return [].

Be HIGHLY selective. Do NOT extract:
- Routine file operations or code edits
- Temporary state or in-progress work
- Implementation details of code just written (the code itself is the record)
- Greetings, acknowledgments, or conversational filler

Transcript:
---
%s
---`, transcript)
}
