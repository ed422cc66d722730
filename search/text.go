package search

import (
	"strings"
	"unicode"
)

// Stop words ignored when checking for verbatim matches
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "my": true, "i": true, "about": true, "what": true,
}

// keywords lowercases text, splits it on anything that is not a letter or
// digit, and drops stop words.
func keywords(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	filtered := words[:0]
	for _, word := range words {
		if !stopWords[word] {
			filtered = append(filtered, word)
		}
	}
	return filtered
}

// containsAllQueryWords reports whether every query keyword appears in note.
// A query made only of stop words never matches.
func containsAllQueryWords(note, query string) bool {
	queryWords := keywords(query)
	if len(queryWords) == 0 {
		return false
	}

	noteWords := make(map[string]bool)
	for _, word := range keywords(note) {
		noteWords[word] = true
	}

	for _, word := range queryWords {
		if !noteWords[word] {
			return false
		}
	}
	return true
}
