package llm

import "strings"

// StripCodeFence removes a surrounding markdown code fence from a model
// reply. Providers asked for raw JSON still occasionally wrap it in
// ```json ... ``` blocks.
func StripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	// Drop the opening fence line, including any language tag.
	rest := trimmed[3:]
	if idx := strings.Index(rest, "\n"); idx >= 0 {
		rest = rest[idx+1:]
	} else {
		rest = strings.TrimPrefix(rest, "json")
	}

	if idx := strings.LastIndex(rest, "```"); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.TrimSpace(rest)
}
