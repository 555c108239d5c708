package llm

import "strings"

// CleanJSONBlock strips markdown code fences from a model response. Gemini
// sometimes wraps the candidate in ```json fences even though the request
// asks for a JSON response MIME type.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	rest, fenced := strings.CutPrefix(text, "```")
	if !fenced {
		return text
	}

	// Drop a language tag such as "json" on the opening fence. A first line
	// holding spaces or an opening brace is payload, not a tag.
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		tag := rest[:idx]
		if len(tag) < 20 && !strings.ContainsAny(tag, " {") {
			rest = rest[idx+1:]
		}
	} else {
		rest = strings.TrimPrefix(rest, "json")
	}

	if idx := strings.LastIndex(rest, "```"); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.TrimSpace(rest)
}
