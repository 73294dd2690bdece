package analyzer

import (
	"strings"
	"unicode"
)

// WordTokenizer splits text into lower-cased word terms with stopword removal.
// It feeds the offline hashing embedder, not the chunker.
type WordTokenizer struct {
	stopwords map[string]struct{}
	minLen    int
}

func NewWordTokenizer() *WordTokenizer {
	return &WordTokenizer{
		stopwords: defaultStopwords(),
		minLen:    2,
	}
}

// Terms returns the normalised terms of text in order of appearance.
func (t *WordTokenizer) Terms(text string) []string {
	words := splitWords(text)
	terms := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(word)
		if len([]rune(word)) < t.minLen {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		terms = append(terms, word)
	}

	return terms
}

// splitWords splits text on anything that is not a letter or digit.
func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "we", "our", "they", "their",
		"if", "or", "so", "no", "can", "do", "does", "did", "been",
		"being", "would", "could", "should", "may", "might", "which",
		"who", "what", "when", "where", "how", "all", "each", "other",
		"some", "such", "than", "also", "any", "these", "those",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
