package search

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/poiesic/phrasematch/ai/mock"
	"github.com/poiesic/phrasematch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSearcher(t *testing.T) {
	encoder, _ := newTestEncoder()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(encoder)
		require.NoError(t, err)
		assert.Equal(t, DefaultTopK, searcher.topK)
		assert.Equal(t, DefaultThreshold, searcher.threshold)
		assert.Equal(t, DefaultKeywordRule(), searcher.rule)
		assert.Equal(t, DefaultEmbedTimeout, searcher.embedTimeout)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(encoder, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher.logger)
	})

	t.Run("nil encoder", func(t *testing.T) {
		_, err := NewSearcher(nil)
		assert.Equal(t, ErrEncoderRequired, err)
	})

	invalid := []struct {
		name string
		opt  Option
	}{
		{"zero top_k", WithTopK(0)},
		{"negative threshold", WithThreshold(-0.1)},
		{"threshold above one", WithThreshold(1.1)},
		{"zero bound", WithKeywordRule(KeywordRule{Bound: 0, Unit: UnitChars})},
		{"unknown unit", WithKeywordRule(KeywordRule{Bound: 5, Unit: "bytes"})},
		{"zero exact score", WithExactScore(0)},
		{"exact score above one", WithExactScore(1.5)},
		{"negative max exact", WithMaxExact(-1)},
		{"negative timeout", WithEmbedTimeout(-time.Second)},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSearcher(encoder, tt.opt)
			assert.ErrorIs(t, err, ErrInvalidOption)
		})
	}
}

func TestSearch_ScenarioSynonymAndInflection(t *testing.T) {
	idx := newTestIndex(t,
		testEntry{"утеряна сим-карта", []string{"Блокировка СИМ"}},
		testEntry{"открыть вклад онлайн", []string{"Вклады"}},
	)
	encoder, _ := newTestEncoder()
	searcher, err := NewSearcher(encoder, WithThreshold(0.5))
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), idx, "потерял симку")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "утеряна сим-карта", results[0].DisplayPhrase)
	assert.Equal(t, []string{"Блокировка СИМ"}, results[0].Topics)
	assert.Greater(t, results[0].Score, float32(0))
}

func TestSearch_ScenarioShortQueryExactOnly(t *testing.T) {
	idx := newTestIndex(t,
		testEntry{"оплата картой через приложение банка", []string{"Платежи"}},
		testEntry{"пэйпал кошелек", []string{"Кошельки"}},
		testEntry{"перевод денег", []string{"Переводы"}},
		testEntry{"подключить Pay-сервисы на телефоне", []string{"Платежи"}},
	)
	encoder, _ := newTestEncoder()
	searcher, err := NewSearcher(encoder,
		WithThreshold(0.95),
		WithKeywordRule(KeywordRule{Bound: 5, Unit: UnitChars}),
	)
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), idx, "pay")
	require.NoError(t, err)
	assert.Equal(t, []string{"оплата картой через приложение банка", "подключить Pay-сервисы на телефоне"}, phrases(results))
	for _, r := range results {
		assert.True(t, r.Exact)
		assert.Equal(t, core.ExactMatchScore, r.Score)
	}
}

func TestSearch_ExactAppendedAfterSemantic(t *testing.T) {
	idx := newTestIndex(t,
		testEntry{"пэй", []string{"A"}},
		testEntry{"как включить оплата телефоном в магазине", []string{"B"}},
	)
	encoder, _ := newTestEncoder()
	searcher, err := NewSearcher(encoder, WithExactScore(0.999))
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), idx, "оплата")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "пэй", results[0].DisplayPhrase)
	assert.False(t, results[0].Exact, "semantic version wins over the exact duplicate")
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)

	assert.Equal(t, "как включить оплата телефоном в магазине", results[1].DisplayPhrase)
	assert.True(t, results[1].Exact)
	assert.Equal(t, float32(0.999), results[1].Score)
}

func TestSearch_NothingMatched(t *testing.T) {
	idx := newTestIndex(t, testEntry{"открыть вклад онлайн", []string{"Вклады"}})
	encoder, _ := newTestEncoder()
	searcher, err := NewSearcher(encoder, WithThreshold(0.99))
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), idx, "курс валют сегодня")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearch_BlankQuery(t *testing.T) {
	idx := newTestIndex(t, testEntry{"открыть вклад", nil})
	encoder, embedder := newTestEncoder()
	searcher, err := NewSearcher(encoder)
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), idx, "  ...  ")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Zero(t, embedder.CallCount())
}

func TestSearch_EncodingFailureIsAnError(t *testing.T) {
	idx := newTestIndex(t, testEntry{"оплата картой", nil})
	encoder, embedder := newTestEncoder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("provider down")
	}
	searcher, err := NewSearcher(encoder)
	require.NoError(t, err)

	// The keyword path would match, but a failed encoding fails the query.
	_, err = searcher.Search(context.Background(), idx, "pay")
	assert.ErrorIs(t, err, core.ErrEncodingFailure)
}

func TestSearch_ZeroQueryVectorIsAnError(t *testing.T) {
	idx := newTestIndex(t, testEntry{"оплата картой", []string{"Платежи"}})
	encoder, embedder := newTestEncoder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return make([]float32, mock.DefaultDimension), nil
	}
	searcher, err := NewSearcher(encoder, WithThreshold(0))
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), idx, "оплата картой")
	assert.ErrorIs(t, err, core.ErrEncodingFailure)
	assert.Nil(t, results)
}

func TestSearch_SlashAlternativesRankedApart(t *testing.T) {
	// Both entries come from the record "карта/карточка оплаты".
	idx := newTestIndex(t,
		testEntry{"карта оплаты", []string{"Платежи", "Карты"}},
		testEntry{"карточка оплаты", []string{"Платежи", "Карты"}},
	)
	encoder, _ := newTestEncoder()
	searcher, err := NewSearcher(encoder, WithThreshold(0.5))
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), idx, "карточка")
	require.NoError(t, err)
	assert.Equal(t, []string{"карточка оплаты"}, phrases(results))
	assert.Equal(t, []string{"Платежи", "Карты"}, results[0].Topics)
	assert.False(t, results[0].Exact)
}

func TestSearch_EmbedTimeout(t *testing.T) {
	idx := newTestIndex(t, testEntry{"оплата картой", nil})
	encoder, embedder := newTestEncoder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	searcher, err := NewSearcher(encoder, WithEmbedTimeout(20*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	_, err = searcher.Search(context.Background(), idx, "оплата картой")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, core.ErrEncodingFailure)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSearch_NilIndex(t *testing.T) {
	encoder, _ := newTestEncoder()
	searcher, err := NewSearcher(encoder)
	require.NoError(t, err)

	_, err = searcher.Search(context.Background(), nil, "q")
	assert.ErrorIs(t, err, ErrIndexRequired)
}

// recordingMonitor captures monitor callbacks for assertions.
type recordingMonitor struct {
	stages     []string
	normalized string
	semantic   []core.MatchResult
	exact      []KeywordHit
	final      []core.MatchResult
}

func (m *recordingMonitor) Start(query string) { m.stages = append(m.stages, "start") }
func (m *recordingMonitor) AfterNormalization(normalized string) {
	m.stages = append(m.stages, "normalize")
	m.normalized = normalized
}
func (m *recordingMonitor) AfterSemanticRanking(results []core.MatchResult) {
	m.stages = append(m.stages, "semantic")
	m.semantic = results
}
func (m *recordingMonitor) AfterKeywordMatch(hits []KeywordHit) {
	m.stages = append(m.stages, "keyword")
	m.exact = hits
}
func (m *recordingMonitor) Finish(results []core.MatchResult) {
	m.stages = append(m.stages, "finish")
	m.final = results
}

func TestSearchWithMonitor(t *testing.T) {
	idx := newTestIndex(t,
		testEntry{"оплата картой", []string{"Платежи"}},
		testEntry{"открыть вклад", []string{"Вклады"}},
	)
	encoder, _ := newTestEncoder()
	searcher, err := NewSearcher(encoder, WithLogger(slog.Default()))
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	results, err := searcher.SearchWithMonitor(context.Background(), idx, "PAY", monitor)
	require.NoError(t, err)

	assert.Equal(t, []string{"start", "normalize", "semantic", "keyword", "finish"}, monitor.stages)
	assert.Equal(t, "пэй", monitor.normalized)
	assert.Equal(t, []string{"оплата картой"}, hitPhrases(monitor.exact))
	assert.Equal(t, results, monitor.final)

	t.Run("blank query skips ranking", func(t *testing.T) {
		monitor := &recordingMonitor{}
		_, err := searcher.SearchWithMonitor(context.Background(), idx, "", monitor)
		require.NoError(t, err)
		assert.Equal(t, []string{"start", "normalize", "finish"}, monitor.stages)
	})
}
