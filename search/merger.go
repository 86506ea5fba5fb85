package search

import "github.com/poiesic/phrasematch/core"

// MergeOptions controls how exact-only hits are appended.
type MergeOptions struct {
	// ExactScore is the sentinel given to exact-only results.
	// Zero means core.ExactMatchScore.
	ExactScore float32
	// MaxExact caps the number of appended exact-only results. Zero means unlimited.
	MaxExact int
}

// Merge combines ranked semantic results with keyword hits. Results are
// de-duplicated by display phrase; the semantic list keeps its order and its
// scores, and exact-only hits follow it in corpus order with the sentinel
// score.
func Merge(semantic []core.MatchResult, exact []KeywordHit, opts MergeOptions) []core.MatchResult {
	score := opts.ExactScore
	if score == 0 {
		score = core.ExactMatchScore
	}

	seen := make(map[string]bool, len(semantic)+len(exact))
	merged := make([]core.MatchResult, 0, len(semantic)+len(exact))
	for _, result := range semantic {
		if seen[result.DisplayPhrase] {
			continue
		}
		seen[result.DisplayPhrase] = true
		merged = append(merged, result)
	}

	appended := 0
	for _, hit := range exact {
		if seen[hit.DisplayPhrase] {
			continue
		}
		if opts.MaxExact > 0 && appended >= opts.MaxExact {
			break
		}
		seen[hit.DisplayPhrase] = true
		merged = append(merged, ToResults([]KeywordHit{hit}, score)...)
		appended++
	}
	return merged
}
