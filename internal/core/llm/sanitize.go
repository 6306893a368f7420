package llm

import (
	"regexp"
	"strings"
)

// thinkTagRe matches delimited internal-reasoning blocks some models emit
// in their raw output.
var thinkTagRe = regexp.MustCompile(`(?is)<think>.*?</think>`)

// SanitizeAnswer strips reasoning markup from raw model output and trims
// the result. Applied before any answer is surfaced to callers.
func SanitizeAnswer(text string) string {
	if text == "" {
		return text
	}
	return strings.TrimSpace(thinkTagRe.ReplaceAllString(text, ""))
}
