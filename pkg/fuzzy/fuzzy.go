package fuzzy

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LevenshteinDistance calculates the edit distance between two strings
// after lowercasing and removing accents, so "José" and "jose" are equal.
func LevenshteinDistance(s1, s2 string) int {
	r1 := []rune(normalizeString(s1))
	r2 := []rune(normalizeString(s2))

	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}

// FuzzyMatch checks if query fuzzy-matches text within a given threshold
// threshold is the maximum allowed edit distance per word
func FuzzyMatch(query, text string, threshold int) bool {
	query = normalizeString(query)
	text = normalizeString(text)

	if strings.Contains(text, query) {
		return true
	}

	for _, word := range strings.Fields(text) {
		if LevenshteinDistance(query, word) <= threshold {
			return true
		}
	}
	return false
}

// MatchName reports whether every word of query matches a distinct word of
// name, allowing a few typos in longer words. "jane smth" matches
// "Jane Smith"; "jane" alone matches too.
func MatchName(query, name string) bool {
	qWords := strings.Fields(normalizeString(query))
	nWords := strings.Fields(normalizeString(name))
	if len(qWords) == 0 || len(qWords) > len(nWords) {
		return false
	}

	used := make([]bool, len(nWords))
	for _, q := range qWords {
		found := false
		for i, n := range nWords {
			if used[i] {
				continue
			}
			if LevenshteinDistance(q, n) <= typoThreshold(q) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// typoThreshold scales tolerance with word length
func typoThreshold(word string) int {
	switch n := len([]rune(word)); {
	case n <= 3:
		return 0
	case n <= 5:
		return 1
	default:
		return 2
	}
}

// normalizeString lowercases, strips accents and collapses whitespace
func normalizeString(s string) string {
	s = strings.ToLower(removeAccents(s))
	return strings.Join(strings.Fields(s), " ")
}

// removeAccents removes diacritical marks from a string
func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
