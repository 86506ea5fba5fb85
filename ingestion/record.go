package ingestion

import (
	"strings"
	"unicode"
)

// maxAlternatives caps how many phrases one record may expand into.
const maxAlternatives = 16

// CleanTopics trims topic labels, drops blanks and collapses consecutive
// identical labels. Non-adjacent duplicates are kept so source order survives.
func CleanTopics(topics []string) []string {
	out := make([]string, 0, len(topics))
	for _, topic := range topics {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		if len(out) > 0 && out[len(out)-1] == topic {
			continue
		}
		out = append(out, topic)
	}
	return out
}

// SplitAlternatives expands a catalog phrase into the phrases it stands for.
//
// A slash next to whitespace or at either end of the phrase separates whole
// phrases: "сим карта / симка" yields "сим карта" and "симка". A slash
// inside a word offers alternatives for that word only:
// "карта/карточка оплаты" yields "карта оплаты" and "карточка оплаты".
// Results are trimmed, de-duplicated and returned in source order. A phrase
// without slashes is returned as-is (trimmed).
func SplitAlternatives(phrase string) []string {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return nil
	}
	if !strings.Contains(phrase, "/") {
		return []string{phrase}
	}

	var out []string
	seen := make(map[string]struct{})
	for _, segment := range splitPhrases(phrase) {
		for _, alt := range expandWords(strings.Fields(segment)) {
			if _, ok := seen[alt]; ok {
				continue
			}
			seen[alt] = struct{}{}
			out = append(out, alt)
		}
	}
	return out
}

// splitPhrases cuts s at every slash that touches whitespace or a boundary.
func splitPhrases(s string) []string {
	runes := []rune(s)
	var segments []string
	start := 0
	for i, r := range runes {
		if r != '/' {
			continue
		}
		before := i == 0 || unicode.IsSpace(runes[i-1])
		after := i == len(runes)-1 || unicode.IsSpace(runes[i+1])
		if before || after {
			segments = append(segments, string(runes[start:i]))
			start = i + 1
		}
	}
	segments = append(segments, string(runes[start:]))
	return segments
}

// expandWords returns the cartesian product of per-word alternatives,
// stopping at maxAlternatives.
func expandWords(words []string) []string {
	if len(words) == 0 {
		return nil
	}
	results := []string{""}
	for _, word := range words {
		var options []string
		for _, option := range strings.Split(word, "/") {
			if option != "" {
				options = append(options, option)
			}
		}
		if len(options) == 0 {
			continue
		}

		next := make([]string, 0, len(results)*len(options))
		for _, prefix := range results {
			for _, option := range options {
				if len(next) == maxAlternatives {
					break
				}
				if prefix == "" {
					next = append(next, option)
				} else {
					next = append(next, prefix+" "+option)
				}
			}
		}
		results = next
	}
	if len(results) == 1 && results[0] == "" {
		return nil
	}
	return results
}
