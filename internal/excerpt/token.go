package excerpt

import (
	"strings"
	"unicode"
)

// EstimateTokens gives a rough token count at ~1.33 tokens per word.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// Keywords returns the set of lower-cased word tokens in text.
func Keywords(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	}) {
		set[w] = true
	}
	return set
}

// Overlap is the share of keywords that occur in text, in [0, 1].
func Overlap(keywords map[string]bool, text string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	hits := 0
	for w := range Keywords(text) {
		if keywords[w] {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}
