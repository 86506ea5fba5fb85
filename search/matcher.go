package search

import (
	"strings"
	"unicode/utf8"

	"github.com/poiesic/phrasematch/core"
)

// LengthUnit selects how query length is measured for exact-match qualification.
type LengthUnit string

const (
	UnitChars  LengthUnit = "chars"
	UnitTokens LengthUnit = "tokens"
)

// KeywordRule decides which queries qualify for exact matching.
type KeywordRule struct {
	// Bound is the inclusive length ceiling of a qualifying query.
	Bound int
	// Unit measures the full normalized query in characters or tokens.
	Unit LengthUnit
	// ExtractKeywords matches the individual tokens of a longer query whose
	// character length is within Bound.
	ExtractKeywords bool
}

// DefaultKeywordRule returns a rule qualifying normalized queries of at most
// five characters, with keyword extraction for longer queries.
func DefaultKeywordRule() KeywordRule {
	return KeywordRule{Bound: 5, Unit: UnitChars, ExtractKeywords: true}
}

// KeywordHit is an entry found by whole-word matching.
type KeywordHit struct {
	DisplayPhrase string
	Topics        []string
	Ordinal       int
}

// KeywordMatch returns, in corpus order, every entry whose normalized phrase
// contains the normalized query (or one of its short keywords) as a whole
// word. Queries that do not qualify under rule yield no hits.
func KeywordMatch(query string, idx *Index, rule KeywordRule) []KeywordHit {
	if idx == nil {
		return nil
	}
	return keywordMatchNormalized(idx.Normalizer().Normalize(query), idx, rule)
}

func keywordMatchNormalized(normalized string, idx *Index, rule KeywordRule) []KeywordHit {
	needles := rule.needles(normalized)
	if len(needles) == 0 {
		return nil
	}

	var hits []KeywordHit
	for i, entry := range idx.All() {
		if containsAnyWord(entry.NormalizedPhrase, needles) {
			hits = append(hits, KeywordHit{
				DisplayPhrase: entry.DisplayPhrase,
				Topics:        entry.Topics,
				Ordinal:       i,
			})
		}
	}
	return hits
}

// needles returns the word sequences to look for, or nil when the query
// does not qualify.
func (r KeywordRule) needles(normalized string) []string {
	if normalized == "" || r.Bound <= 0 {
		return nil
	}

	tokens := strings.Fields(normalized)
	length := utf8.RuneCountInString(normalized)
	if r.Unit == UnitTokens {
		length = len(tokens)
	}
	if length <= r.Bound {
		return []string{normalized}
	}
	if !r.ExtractKeywords {
		return nil
	}

	var needles []string
	seen := make(map[string]bool)
	for _, token := range tokens {
		if utf8.RuneCountInString(token) <= r.Bound && !seen[token] {
			seen[token] = true
			needles = append(needles, token)
		}
	}
	return needles
}

// containsAnyWord reports whether any needle occurs in phrase bounded by
// word boundaries. Both sides are normalized, so words are separated by
// exactly one space.
func containsAnyWord(phrase string, needles []string) bool {
	padded := " " + phrase + " "
	for _, needle := range needles {
		if strings.Contains(padded, " "+needle+" ") {
			return true
		}
	}
	return false
}

// ToResults renders hits as results carrying the sentinel score.
func ToResults(hits []KeywordHit, score float32) []core.MatchResult {
	results := make([]core.MatchResult, len(hits))
	for i, hit := range hits {
		results[i] = core.MatchResult{
			Score:         score,
			DisplayPhrase: hit.DisplayPhrase,
			Topics:        hit.Topics,
			Exact:         true,
		}
	}
	return results
}
