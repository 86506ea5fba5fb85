// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package phrasematch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/poiesic/phrasematch/ai"
	"github.com/poiesic/phrasematch/ai/openai"
	"github.com/poiesic/phrasematch/config"
	"github.com/poiesic/phrasematch/core"
	"github.com/poiesic/phrasematch/corpus"
	"github.com/poiesic/phrasematch/embedding"
	"github.com/poiesic/phrasematch/ingestion"
	"github.com/poiesic/phrasematch/search"
	"github.com/poiesic/phrasematch/storage"
	"github.com/poiesic/phrasematch/storage/badger"
	"github.com/poiesic/phrasematch/text"
)

// Engine owns the published corpus index and answers queries against it.
// Searches read the current index without locking; Reload and Build
// construct a complete new index and swap it in, so a search never observes
// a partially built corpus.
type Engine struct {
	cfg        *config.Config
	normalizer *text.Normalizer
	conflicts  []text.Conflict
	encoder    *embedding.Encoder
	builder    *ingestion.Builder
	searcher   *search.Searcher
	loader     *corpus.Loader
	cache      storage.EmbeddingCache
	ownsCache  bool

	index    atomic.Pointer[search.Index]
	reloadMu sync.Mutex
	closed   atomic.Bool
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	embedder ai.Embedder
	cache    storage.EmbeddingCache
	loader   []corpus.LoaderOption
	progress *embedding.ProgressTracker
	logger   *slog.Logger
}

// WithEmbedder replaces the OpenAI-compatible embedding client built from
// the config.
func WithEmbedder(embedder ai.Embedder) EngineOption {
	return func(o *engineOptions) {
		o.embedder = embedder
	}
}

// WithCache replaces the embedding cache opened from cache.path. The caller
// keeps ownership and must close it after the engine.
func WithCache(cache storage.EmbeddingCache) EngineOption {
	return func(o *engineOptions) {
		o.cache = cache
	}
}

// WithLoaderOptions passes extra options to the corpus loader.
func WithLoaderOptions(opts ...corpus.LoaderOption) EngineOption {
	return func(o *engineOptions) {
		o.loader = append(o.loader, opts...)
	}
}

// WithProgress reports embedding progress during index builds.
func WithProgress(tracker *embedding.ProgressTracker) EngineOption {
	return func(o *engineOptions) {
		o.progress = tracker
	}
}

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine wires the components described by cfg. The engine starts
// without an index; call Reload or Build before searching.
func NewEngine(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	synonyms, conflicts := text.NewSynonymMap(cfg.Groups(), logger)
	var normalizerOpts []text.NormalizerOption
	if cfg.Stemmer != "" {
		stemmer, err := text.SnowballStemmer(cfg.Stemmer)
		if err != nil {
			return nil, err
		}
		normalizerOpts = append(normalizerOpts, text.WithStemmer(stemmer))
	}
	normalizer := text.NewNormalizer(synonyms, normalizerOpts...)

	embedder := options.embedder
	if embedder == nil {
		var err error
		embedder, err = openai.NewEmbedder(cfg.AIConfig(), logger)
		if err != nil {
			return nil, err
		}
	}

	cache := options.cache
	ownsCache := false
	if cache == nil && cfg.Cache.Path != "" {
		var err error
		cache, err = badger.OpenEmbeddingCache(cfg.Cache.Path, badger.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("open embedding cache: %w", err)
		}
		ownsCache = true
	}

	encoderOpts := []embedding.EncoderOption{
		embedding.WithRetry(cfg.Embedding.MaxRetries, cfg.Embedding.RetryDelay),
		embedding.WithLogger(logger),
	}
	if cache != nil {
		encoderOpts = append(encoderOpts, embedding.WithCache(cache, cfg.Embedding.Model))
	}
	encoder := embedding.NewEncoder(embedder, encoderOpts...)

	builder, err := ingestion.NewBuilder(encoder, normalizer,
		ingestion.WithPoolSize(cfg.PoolSize()),
		ingestion.WithBatchSize(cfg.Embedding.BatchSize),
		ingestion.WithProgress(options.progress),
		ingestion.WithLogger(logger),
	)
	if err != nil {
		if ownsCache {
			cache.Close()
		}
		return nil, err
	}

	searcher, err := search.NewSearcher(encoder, append(cfg.SearchOptions(), search.WithLogger(logger))...)
	if err != nil {
		builder.Release()
		if ownsCache {
			cache.Close()
		}
		return nil, err
	}

	loaderOpts := append([]corpus.LoaderOption{
		corpus.WithPhraseColumn(cfg.PhraseColumn),
		corpus.WithTopicPrefix(cfg.TopicColumnPrefix),
		corpus.WithLogger(logger),
	}, options.loader...)

	return &Engine{
		cfg:        cfg,
		normalizer: normalizer,
		conflicts:  conflicts,
		encoder:    encoder,
		builder:    builder,
		searcher:   searcher,
		loader:     corpus.NewLoader(loaderOpts...),
		cache:      cache,
		ownsCache:  ownsCache,
		logger:     logger.With("component", "engine"),
	}, nil
}

// Reload loads every configured source, builds a new index and publishes
// it. On failure the previously published index stays in place.
func (e *Engine) Reload(ctx context.Context) (ingestion.Stats, error) {
	if e.closed.Load() {
		return ingestion.Stats{}, ErrEngineClosed
	}
	records, report, err := e.loader.Load(ctx, e.cfg.Sources)
	if err != nil {
		return ingestion.Stats{}, err
	}
	if failed := report.Failed(); failed > 0 {
		e.logger.Warn("some sources were skipped", "failed", failed, "loaded", report.Loaded())
	}
	return e.Build(ctx, records)
}

// Build indexes records and publishes the result. Concurrent builds are
// serialized; searches keep using the previous index until the swap.
func (e *Engine) Build(ctx context.Context, records []core.RawRecord) (ingestion.Stats, error) {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	if e.closed.Load() {
		return ingestion.Stats{}, ErrEngineClosed
	}

	index, stats, err := e.builder.Build(ctx, records)
	if err != nil {
		return stats, err
	}
	e.index.Store(index)
	e.logger.Info("index published", "entries", index.Len(), "dimension", index.Dimension())
	return stats, nil
}

// Search answers a query against the published index.
func (e *Engine) Search(ctx context.Context, query string) ([]core.MatchResult, error) {
	return e.SearchWithMonitor(ctx, query, nil)
}

// SearchWithMonitor is Search with stage callbacks.
func (e *Engine) SearchWithMonitor(ctx context.Context, query string, monitor search.SearchMonitor) ([]core.MatchResult, error) {
	index := e.index.Load()
	if index == nil {
		return nil, ErrNotReady
	}
	return e.searcher.SearchWithMonitor(ctx, index, query, monitor)
}

// Index returns the published index, or nil before the first build.
func (e *Engine) Index() *search.Index {
	return e.index.Load()
}

// Normalizer returns the normalizer shared by indexing and queries.
func (e *Engine) Normalizer() *text.Normalizer {
	return e.normalizer
}

// Conflicts returns the synonym members claimed by more than one group.
func (e *Engine) Conflicts() []text.Conflict {
	return e.conflicts
}

// Close releases the worker pool and the embedding cache opened by the engine.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}

	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	e.builder.Release()
	if e.ownsCache {
		if err := e.cache.Close(); err != nil {
			e.logger.Error("error closing embedding cache", "err", err)
			return err
		}
	}
	return nil
}
