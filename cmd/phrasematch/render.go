package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/phrasematch/core"
	"github.com/poiesic/phrasematch/search"
)

// renderResults prints semantic matches first, then keyword matches in a
// block of their own.
func renderResults(w io.Writer, results []core.MatchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "Nothing found.")
		return
	}

	var semantic, exact []core.MatchResult
	for _, r := range results {
		if r.Exact {
			exact = append(exact, r)
		} else {
			semantic = append(semantic, r)
		}
	}

	for i, r := range semantic {
		fmt.Fprintf(w, "%d. [%.3f] %s\n", i+1, r.Score, r.DisplayPhrase)
		fmt.Fprintf(w, "   topics: %s\n", formatTopics(r.Topics))
	}
	if len(exact) == 0 {
		return
	}

	if len(semantic) > 0 {
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "Additional keyword matches:")
	for _, r := range exact {
		fmt.Fprintf(w, "- %s\n", r.DisplayPhrase)
		fmt.Fprintf(w, "  topics: %s\n", formatTopics(r.Topics))
	}
}

func formatTopics(topics []string) string {
	if len(topics) == 0 {
		return "-"
	}
	return strings.Join(topics, ", ")
}

// explainMonitor prints each stage of a search.
type explainMonitor struct {
	out io.Writer
}

var _ search.SearchMonitor = (*explainMonitor)(nil)

func (m *explainMonitor) Start(query string) {
	fmt.Fprintf(m.out, "query:      %q\n", query)
}

func (m *explainMonitor) AfterNormalization(normalized string) {
	fmt.Fprintf(m.out, "normalized: %q\n", normalized)
}

func (m *explainMonitor) AfterSemanticRanking(results []core.MatchResult) {
	fmt.Fprintf(m.out, "semantic:   %d above threshold\n", len(results))
	for _, r := range results {
		fmt.Fprintf(m.out, "  %.3f %s\n", r.Score, r.DisplayPhrase)
	}
}

func (m *explainMonitor) AfterKeywordMatch(hits []search.KeywordHit) {
	fmt.Fprintf(m.out, "keyword:    %d hits\n", len(hits))
	for _, h := range hits {
		fmt.Fprintf(m.out, "  #%d %s\n", h.Ordinal, h.DisplayPhrase)
	}
}

func (m *explainMonitor) Finish(results []core.MatchResult) {
	fmt.Fprintf(m.out, "merged:     %d results\n\n", len(results))
}
