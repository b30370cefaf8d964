package analytics

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var lexiconYAML []byte

var lexicon = sync.OnceValue(func() map[string]int {
	m, err := ParseLexicon(lexiconYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded sentiment lexicon: %v", err))
	}
	return m
})

// ParseLexicon decodes a word → polarity YAML mapping.
func ParseLexicon(data []byte) (map[string]int, error) {
	var m map[string]int
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing lexicon YAML: %w", err)
	}
	return m, nil
}

// tokenize lower-cases text, strips punctuation and splits on whitespace.
func tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return ' '
		}
		return -1
	}, text)
	return strings.Fields(cleaned)
}

// SentimentScore sums the lexicon polarity of every word in text.
func SentimentScore(text string) int {
	lex := lexicon()
	score := 0
	for _, tok := range tokenize(text) {
		score += lex[tok]
	}
	return score
}
