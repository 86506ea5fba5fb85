package search

import (
	"testing"

	"github.com/poiesic/phrasematch/ai/mock"
	"github.com/poiesic/phrasematch/core"
	"github.com/poiesic/phrasematch/embedding"
	"github.com/poiesic/phrasematch/text"
	"github.com/stretchr/testify/require"
)

var testGroups = []core.SynonymGroup{
	{"симка", "симку", "сим карта", "симкарта"},
	{"потерять", "потерял", "утеряна", "утерян"},
	{"кредитка", "кредитная карта"},
	{"пэй", "pay", "оплата", "пэймент"},
}

type testEntry struct {
	phrase string
	topics []string
}

func newTestNormalizer(t *testing.T) *text.Normalizer {
	t.Helper()
	synonyms, conflicts := text.NewSynonymMap(testGroups, nil)
	require.Empty(t, conflicts)
	return text.NewNormalizer(synonyms)
}

// newTestIndex embeds each phrase with the mock trigram embedding, the same
// function the mock embedder applies to queries.
func newTestIndex(t *testing.T, entries ...testEntry) *Index {
	t.Helper()
	normalizer := newTestNormalizer(t)
	catalog := make([]core.CatalogEntry, len(entries))
	for i, e := range entries {
		normalized := normalizer.Normalize(e.phrase)
		catalog[i] = core.CatalogEntry{
			Id:               core.IDFromContent(normalized),
			DisplayPhrase:    e.phrase,
			NormalizedPhrase: normalized,
			Topics:           e.topics,
			Vector:           embedding.NormalizeVector(mock.TrigramVector(normalized, mock.DefaultDimension)),
		}
	}
	idx, err := NewIndex(catalog, normalizer)
	require.NoError(t, err)
	return idx
}

func newTestEncoder() (*embedding.Encoder, *mock.MockEmbedder) {
	embedder := mock.NewMockEmbedder()
	return embedding.NewEncoder(embedder), embedder
}

func phrases(results []core.MatchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.DisplayPhrase
	}
	return out
}

func hitPhrases(hits []KeywordHit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.DisplayPhrase
	}
	return out
}
