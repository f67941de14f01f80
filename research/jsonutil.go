package research

import (
	"encoding/json"
	"strings"
)

// stripCodeFences extracts the payload from a markdown code fence if one
// is present. A "```json" fence wins over a bare "```" fence; text
// without fences is returned trimmed.
func stripCodeFences(content string) string {
	if idx := strings.Index(content, "```json"); idx >= 0 {
		rest := content[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(content, "```"); idx >= 0 {
		rest := content[idx+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(content)
}

// decodeReply strips code fences from a model reply and decodes the
// remainder as JSON into v. Callers treat a returned error as a parse
// failure and take their deterministic fallback; it never aborts a run.
func decodeReply(content string, v any) error {
	return json.Unmarshal([]byte(stripCodeFences(content)), v)
}

// truncate caps s at n runes, never splitting a multi-byte character.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
