package llm

import "strings"

// ExtractJSON strips a leading/trailing markdown code fence (```json
// ... ``` or plain ``` ... ```) that chat models routinely wrap
// structured output in, so callers can json.Unmarshal the result
// directly. Text without a fence is returned trimmed and unchanged.
func ExtractJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}
	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
