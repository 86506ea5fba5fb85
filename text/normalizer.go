package text

import (
	"slices"
	"strings"
)

// Normalizer turns raw text into the canonical token sequence used by both
// the semantic and the keyword matching paths. It is immutable and safe for
// concurrent use.
type Normalizer struct {
	synonyms     *SynonymMap
	stemmer      Stemmer
	stemmedCanon map[string]string
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithStemmer enables stemming of tokens that are not synonym members.
// The stemmer is re-applied until it reaches a fixpoint.
func WithStemmer(stemmer Stemmer) NormalizerOption {
	return func(n *Normalizer) {
		if stemmer == nil {
			n.stemmer = nil
			return
		}
		n.stemmer = fixpointStemmer{inner: stemmer}
	}
}

// NewNormalizer creates a Normalizer over the given synonym map.
// A nil map disables synonym canonicalization.
func NewNormalizer(synonyms *SynonymMap, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{synonyms: synonyms}
	for _, opt := range opts {
		opt(n)
	}
	if n.stemmer != nil && synonyms != nil {
		n.stemmedCanon = n.buildStemmedIndex()
	}
	return n
}

// buildStemmedIndex maps the stem of every single-word member to its
// canonical form, so inflected query words still reach their group.
// Keys are visited in sorted order so colliding stems resolve deterministically.
func (n *Normalizer) buildStemmedIndex() map[string]string {
	keys := make([]string, 0, len(n.synonyms.canon))
	for key := range n.synonyms.canon {
		if !strings.Contains(key, " ") {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)

	index := make(map[string]string, len(keys))
	for _, key := range keys {
		stem := n.stemmer.Stem(key)
		if _, exists := index[stem]; !exists {
			index[stem] = n.synonyms.canon[key]
		}
	}
	return index
}

// Normalize returns the canonical form of text: cleaned (see Clean), then
// each token or multi-word member mapped to its synonym group's canonical
// form, then rejoined with single spaces. Rewriting repeats until the text
// stops changing, since canonical forms may join into further multi-word
// members. Normalize never fails and Normalize(Normalize(s)) == Normalize(s).
func (n *Normalizer) Normalize(text string) string {
	tokens := strings.Fields(Clean(text))
	if len(tokens) == 0 {
		return ""
	}

	current := strings.Join(tokens, " ")
	seen := map[string]bool{current: true}
	for {
		next := n.rewrite(current)
		if next == current {
			return current
		}
		if seen[next] {
			return n.cycleRepresentative(next)
		}
		seen[next] = true
		current = next
	}
}

// cycleRepresentative picks the smallest form of a rewriting cycle that
// contains start. Every member of the cycle leads back to the same choice.
func (n *Normalizer) cycleRepresentative(start string) string {
	best := start
	for form := n.rewrite(start); form != start; form = n.rewrite(form) {
		if form < best {
			best = form
		}
	}
	return best
}

// rewrite performs one pass over s. Canonical forms may contain spaces,
// so s is re-split every time.
func (n *Normalizer) rewrite(s string) string {
	return strings.Join(n.canonicalize(strings.Fields(s)), " ")
}

// canonicalize performs one rewriting pass over the tokens.
func (n *Normalizer) canonicalize(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		if canonical, consumed := n.synonyms.longestMatch(tokens[i:]); consumed > 0 {
			out = append(out, canonical)
			i += consumed
			continue
		}
		out = append(out, n.resolveToken(tokens[i]))
		i++
	}
	return out
}

func (n *Normalizer) resolveToken(token string) string {
	if n.stemmer == nil {
		return token
	}
	stem := n.stemmer.Stem(token)
	if canonical, ok := n.synonyms.lookup(stem); ok {
		return canonical
	}
	if canonical, ok := n.stemmedCanon[stem]; ok {
		return canonical
	}
	return stem
}

// Synonyms returns the synonym map backing this normalizer.
func (n *Normalizer) Synonyms() *SynonymMap {
	return n.synonyms
}
