package ai

import "strings"

// MaxEmbeddingChars caps the text sent to a backend.
const MaxEmbeddingChars = 8000

// PrepareText collapses runs of whitespace, trims, and truncates to
// MaxEmbeddingChars runes.
func PrepareText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > MaxEmbeddingChars {
		text = string(r[:MaxEmbeddingChars])
	}
	return text
}
