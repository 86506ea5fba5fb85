package text

import (
	"log/slog"
	"strings"

	"github.com/poiesic/phrasematch/core"
)

// Conflict records a member that appears in more than one synonym group.
// The later group wins.
type Conflict struct {
	Member   string
	Previous string // Canonical form of the earlier group
	Current  string // Canonical form of the winning group
}

// SynonymMap maps every member of a synonym group to the group's canonical form.
// A SynonymMap is immutable after construction and safe for concurrent use.
type SynonymMap struct {
	canon    map[string]string
	maxWords int
}

// NewSynonymMap builds a canonicalization map from the given groups.
// Members are cleaned before insertion so they agree with what the
// Normalizer produces. Empty groups are skipped. A member claimed by two
// groups resolves to the later group's canonical form; every such case is
// logged at warn level and returned as a Conflict.
//
// Building from the same groups always yields the same map.
func NewSynonymMap(groups []core.SynonymGroup, logger *slog.Logger) (*SynonymMap, []Conflict) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "synonyms")

	m := &SynonymMap{canon: make(map[string]string)}
	owner := make(map[string]int)
	var conflicts []Conflict

	for gi, group := range groups {
		members := make([]string, 0, len(group))
		for _, raw := range group {
			if cleaned := Clean(raw); cleaned != "" {
				members = append(members, cleaned)
			}
		}
		if len(members) == 0 {
			logger.Warn("skipping empty synonym group", "group", gi)
			continue
		}

		canonical := members[0]
		for _, member := range members {
			if prev, ok := owner[member]; ok && prev != gi {
				c := Conflict{Member: member, Previous: m.canon[member], Current: canonical}
				conflicts = append(conflicts, c)
				logger.Warn("synonym member appears in multiple groups, later group wins",
					"member", member, "previous", c.Previous, "current", c.Current)
			}
			m.canon[member] = canonical
			owner[member] = gi
			if words := strings.Count(member, " ") + 1; words > m.maxWords {
				m.maxWords = words
			}
		}
	}

	m.collapse()
	return m, conflicts
}

// collapse resolves canonical chains created by later groups claiming an
// earlier group's canonical form, so every value maps to itself.
func (m *SynonymMap) collapse() {
	for key, value := range m.canon {
		seen := map[string]bool{key: true}
		for {
			next, ok := m.canon[value]
			if !ok || next == value || seen[value] {
				break
			}
			seen[value] = true
			value = next
		}
		m.canon[key] = value
	}
}

// Resolve returns the canonical form of word if it (after cleaning) belongs
// to a synonym group, otherwise word unchanged.
func (m *SynonymMap) Resolve(word string) string {
	if m == nil {
		return word
	}
	if canonical, ok := m.canon[Clean(word)]; ok {
		return canonical
	}
	return word
}

// Len returns the number of distinct members in the map.
func (m *SynonymMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.canon)
}

// lookup returns the canonical form of an already-cleaned key.
func (m *SynonymMap) lookup(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	canonical, ok := m.canon[key]
	return canonical, ok
}

// longestMatch finds the longest member starting at tokens[0].
// Returns the canonical form and the number of tokens consumed.
func (m *SynonymMap) longestMatch(tokens []string) (string, int) {
	if m == nil {
		return "", 0
	}
	limit := m.maxWords
	if limit > len(tokens) {
		limit = len(tokens)
	}
	for n := limit; n >= 1; n-- {
		if canonical, ok := m.canon[strings.Join(tokens[:n], " ")]; ok {
			return canonical, n
		}
	}
	return "", 0
}
