// Package tokenizer turns raw utterance text into the normalised token
// sequences consumed by the statistics engines. It lower-cases input, splits
// on non-alphanumeric boundaries and removes caller-supplied stopwords.
// Order and repetition are preserved.
package tokenizer

import (
	"strings"
	"unicode"
)

// Normalize breaks text into lowercased alphanumeric tokens with every word
// in stop removed. Empty input yields an empty, non-nil slice.
func Normalize(text string, stop StopSet) []string {
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, isSeparator)
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if !isAlphanumeric(word) {
			continue
		}
		if stop.Contains(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// WordCount returns the number of whitespace-separated words in text, before
// any normalisation.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func isAlphanumeric(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if isSeparator(r) {
			return false
		}
	}
	return true
}
