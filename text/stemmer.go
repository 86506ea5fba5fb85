package text

import (
	"fmt"

	"github.com/kljensen/snowball"
)

// Stemmer reduces a single lowercase token to its stem.
// Implementations must be safe for concurrent use.
type Stemmer interface {
	Stem(word string) string
}

// StemmerFunc adapts a plain function to the Stemmer interface.
type StemmerFunc func(word string) string

// Stem calls f(word).
func (f StemmerFunc) Stem(word string) string {
	return f(word)
}

// SnowballStemmer returns a Stemmer for the given Snowball language
// (e.g. "russian", "english").
func SnowballStemmer(language string) (Stemmer, error) {
	// Probe once so unsupported languages fail at construction, not per token.
	if _, err := snowball.Stem("test", language, true); err != nil {
		return nil, fmt.Errorf("snowball stemmer: %w", err)
	}
	return StemmerFunc(func(word string) string {
		stemmed, err := snowball.Stem(word, language, true)
		if err != nil || stemmed == "" {
			return word
		}
		return stemmed
	}), nil
}

// fixpointStemmer re-applies the wrapped stemmer until its output stops
// changing, which keeps normalization idempotent.
type fixpointStemmer struct {
	inner Stemmer
}

func (f fixpointStemmer) Stem(word string) string {
	seen := map[string]bool{word: true}
	for {
		next := f.inner.Stem(word)
		if next == word {
			return word
		}
		if seen[next] {
			// A stemmer that cycles settles on the smallest form.
			best := next
			for form := f.inner.Stem(next); form != next; form = f.inner.Stem(form) {
				best = min(best, form)
			}
			return best
		}
		seen[next] = true
		word = next
	}
}
