package search

import (
	"github.com/poiesic/phrasematch/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
// Hooks are called from the goroutine that called Search, never concurrently.
type SearchMonitor interface {
	Start(query string)
	AfterNormalization(normalized string)
	AfterSemanticRanking(results []core.MatchResult)
	AfterKeywordMatch(hits []KeywordHit)
	Finish(results []core.MatchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                            {}
func (n *noopMonitor) AfterNormalization(_ string)               {}
func (n *noopMonitor) AfterSemanticRanking(_ []core.MatchResult) {}
func (n *noopMonitor) AfterKeywordMatch(_ []KeywordHit)          {}
func (n *noopMonitor) Finish(_ []core.MatchResult)               {}
