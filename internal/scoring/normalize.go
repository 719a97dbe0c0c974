// Package scoring grades quiz submissions. Everything here is pure and safe
// for concurrent use.
package scoring

import "strings"

// Normalize canonicalizes a free-text answer before comparison: lowercase,
// angle brackets dropped, separator punctuation turned into spaces, whitespace
// collapsed and trimmed.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>':
			return -1
		case '-', '_', '.', ',', ';', ':', '!', '?', '(', ')', '{', '}', '[', ']', '"', '/', '\\':
			return ' '
		}
		return r
	}, strings.ToLower(text))
	return strings.Join(strings.Fields(text), " ")
}
