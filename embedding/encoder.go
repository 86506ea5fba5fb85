package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/phrasematch/ai"
	"github.com/poiesic/phrasematch/core"
	"github.com/poiesic/phrasematch/storage"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = time.Second
)

// CacheStats counts embedding cache outcomes for one or more batches.
type CacheStats struct {
	Hits   int
	Misses int
}

// Add returns the sum of two stats.
func (s CacheStats) Add(o CacheStats) CacheStats {
	return CacheStats{Hits: s.Hits + o.Hits, Misses: s.Misses + o.Misses}
}

// Encoder turns normalized phrases into unit-length vectors. Batch encoding
// consults an optional embedding cache and retries provider failures with
// exponential backoff. Encoder is safe for concurrent use.
type Encoder struct {
	embedder    ai.Embedder
	cache       storage.EmbeddingCache
	model       string
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithCache enables the embedding cache. Entries are scoped by model, which
// should name the embedding model behind the embedder.
func WithCache(cache storage.EmbeddingCache, model string) EncoderOption {
	return func(e *Encoder) {
		e.cache = cache
		e.model = model
	}
}

// WithRetry sets the number of attempts per batch and the base backoff delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) EncoderOption {
	return func(e *Encoder) {
		if maxAttempts > 0 {
			e.maxAttempts = maxAttempts
		}
		if baseDelay >= 0 {
			e.retryDelay = baseDelay
		}
	}
}

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(logger *slog.Logger) EncoderOption {
	return func(e *Encoder) {
		e.logger = logger
	}
}

// NewEncoder creates an Encoder over the given embedder.
func NewEncoder(embedder ai.Embedder, opts ...EncoderOption) *Encoder {
	e := &Encoder{
		embedder:    embedder,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("component", "encoder")
	return e
}

// EncodeBatch returns one unit-length vector per text, in input order.
// Cached vectors are reused; the rest are requested from the embedder in a
// single call and written back to the cache. Cache failures are logged and
// never fail the batch. Provider failures that survive retries are wrapped
// in core.ErrEncodingFailure.
func (e *Encoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, CacheStats, error) {
	var stats CacheStats
	if len(texts) == 0 {
		return nil, stats, nil
	}

	vectors := e.lookup(ctx, texts)

	var missTexts []string
	var missIdx []int
	for i, v := range vectors {
		if v == nil {
			missTexts = append(missTexts, texts[i])
			missIdx = append(missIdx, i)
		}
	}
	stats.Hits = len(texts) - len(missTexts)
	stats.Misses = len(missTexts)

	if len(missTexts) > 0 {
		var embedded [][]float32
		err := RetryWithBackoff(ctx, e.logger, func(ctx context.Context) error {
			var err error
			embedded, err = e.embedder.EmbedTexts(ctx, missTexts)
			return err
		}, e.maxAttempts, e.retryDelay)
		if err != nil {
			return nil, stats, fmt.Errorf("%w: %d texts after %d attempts: %w",
				core.ErrEncodingFailure, len(missTexts), e.maxAttempts, err)
		}
		if len(embedded) != len(missTexts) {
			return nil, stats, fmt.Errorf("%w: %w: expected %d, got %d",
				core.ErrEncodingFailure, ErrVectorCount, len(missTexts), len(embedded))
		}

		fresh := make([][]float32, len(embedded))
		for j, v := range embedded {
			unit, err := UnitVector(v)
			if err != nil {
				return nil, stats, fmt.Errorf("%w: text %q: %w", core.ErrEncodingFailure, missTexts[j], err)
			}
			fresh[j] = unit
			vectors[missIdx[j]] = unit
		}
		e.store(ctx, missTexts, fresh)
	}

	if err := checkDimensions(vectors); err != nil {
		return nil, stats, fmt.Errorf("%w: %w", core.ErrEncodingFailure, err)
	}
	return vectors, stats, nil
}

// EncodeQuery returns the unit-length vector of a single query text.
// Query vectors are never cached. Failures, including an empty or zero
// vector, are wrapped in core.ErrEncodingFailure.
func (e *Encoder) EncodeQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrEncodingFailure, err)
	}
	unit, err := UnitVector(vector)
	if err != nil {
		return nil, fmt.Errorf("%w: query vector: %w", core.ErrEncodingFailure, err)
	}
	return unit, nil
}

// Model returns the model name used to scope cache entries.
func (e *Encoder) Model() string {
	return e.model
}

func (e *Encoder) lookup(ctx context.Context, texts []string) [][]float32 {
	if e.cache == nil {
		return make([][]float32, len(texts))
	}
	vectors, err := e.cache.Lookup(ctx, e.model, texts)
	if err != nil || len(vectors) != len(texts) {
		e.logger.Warn("embedding cache lookup failed", "count", len(texts), "err", err)
		return make([][]float32, len(texts))
	}
	return vectors
}

func (e *Encoder) store(ctx context.Context, texts []string, vectors [][]float32) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Store(ctx, e.model, texts, vectors); err != nil {
		e.logger.Warn("embedding cache store failed", "count", len(texts), "err", err)
	}
}

func checkDimensions(vectors [][]float32) error {
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d dimensions, expected %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return nil
}
