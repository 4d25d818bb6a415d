// Package llmjson tidies JSON replies from hosted language models.
package llmjson

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var codeFence = regexp.MustCompile("```(?:json)?\\s*")

// Clean removes markdown code fences and surrounding whitespace.
func Clean(s string) string {
	s = codeFence.ReplaceAllString(strings.TrimSpace(s), "")
	return strings.TrimSpace(strings.ReplaceAll(s, "```", ""))
}

// Truncate shortens s to at most maxLen bytes for error messages, cutting on
// a rune boundary.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
