package llm

import (
	"fmt"
	"strings"
)

// ExtractJSON returns the first complete top-level JSON object found in the
// model output. Models frequently wrap JSON in markdown fences or prose, so
// fencing is stripped first and the remainder scanned with a byte-level
// state machine that respects strings and escapes.
func ExtractJSON(text string) (string, error) {
	text = stripFences(text)

	var depth int
	start := -1
	var inString, escape bool

	for i := 0; i < len(text); i++ {
		b := text[i]

		if escape {
			escape = false
			continue
		}
		if inString {
			if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					return text[start : i+1], nil
				}
			}
		}
	}

	return "", fmt.Errorf("no JSON object found in model output")
}

// stripFences removes a surrounding ```json ... ``` (or bare ```) block when
// the whole response is a single fenced code block.
func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	// Drop an optional language tag on the opening fence line.
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(trimmed[:idx])
		if firstLine == "json" || firstLine == "JSON" || firstLine == "" {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
