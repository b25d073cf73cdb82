package corpus

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Stopwords is a set of lowercase lemmas excluded from the corpus.
type Stopwords map[string]struct{}

// Contains reports whether w is a stopword, ignoring case.
func (s Stopwords) Contains(w string) bool {
	_, ok := s[strings.ToLower(w)]
	return ok
}

// DefaultStopwords returns the built-in English stoplist.
func DefaultStopwords() Stopwords {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"do", "have", "also", "et", "al",
	}
	m := make(Stopwords, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

type stoplistFile struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist reads a YAML stoplist ("terms: [...]") and merges it with the
// built-in list. An empty path yields the built-in list alone.
func LoadStoplist(path string) (Stopwords, error) {
	stop := DefaultStopwords()
	if path == "" {
		return stop, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stoplist: %w", err)
	}
	var f stoplistFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse stoplist %s: %w", path, err)
	}
	for _, t := range f.Terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			stop[t] = struct{}{}
		}
	}
	return stop, nil
}
