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

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/phrasematch/core"
	"github.com/poiesic/phrasematch/embedding"
	"github.com/poiesic/phrasematch/search"
	"github.com/poiesic/phrasematch/text"
)

// DefaultBatchSize is the number of distinct phrases sent to the embedder per call.
const DefaultBatchSize = 64

// Stats describes one index build.
type Stats struct {
	Records       int // Raw records seen
	Skipped       int // Records that produced no entry
	Entries       int // Catalog entries in the index
	UniquePhrases int // Distinct normalized phrases submitted for encoding
	FailedBatches int // Batches the provider rejected as a whole
	FailedPhrases int // Phrases that could not be encoded on their own either
	Cache         embedding.CacheStats
}

// Builder turns raw catalog records into a search.Index. Embeddings are
// computed on a bounded worker pool. A Builder may run several builds
// concurrently and must be released when no longer needed.
type Builder struct {
	encoder    *embedding.Encoder
	normalizer *text.Normalizer
	pool       *ants.Pool
	batchSize  int
	progress   *embedding.ProgressTracker
	logger     *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder) error

// WithPoolSize sets the number of batches encoded concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(b *Builder) error {
		if size < 1 {
			size = 1
		}

		if b.pool != nil {
			b.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		b.pool = pool
		return nil
	}
}

// WithBatchSize sets how many phrases are encoded per embedder call.
func WithBatchSize(size int) Option {
	return func(b *Builder) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive, got %d", size)
		}
		b.batchSize = size
		return nil
	}
}

// WithProgress reports encoding progress, counted in distinct phrases.
func WithProgress(tracker *embedding.ProgressTracker) Option {
	return func(b *Builder) error {
		b.progress = tracker
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBuilder creates a new index builder.
func NewBuilder(encoder *embedding.Encoder, normalizer *text.Normalizer, opts ...Option) (*Builder, error) {
	if encoder == nil {
		return nil, ErrEncoderRequired
	}
	if normalizer == nil {
		return nil, ErrNormalizerRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		encoder:    encoder,
		normalizer: normalizer,
		pool:       pool,
		batchSize:  DefaultBatchSize,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(b); optErr != nil {
			b.Release()
			return nil, optErr
		}
	}
	b.logger = b.logger.With("component", "index-builder")

	return b, nil
}

// Release stops the worker pool.
func (b *Builder) Release() {
	if b.pool != nil {
		b.pool.Release()
	}
}

// pendingEntry is a catalog entry waiting for its vector.
type pendingEntry struct {
	display    string
	normalized string
	topics     []string
	phrase     int // Index into the unique phrase list
	record     int
}

// Build creates an index from records in corpus order. Records with a
// blank phrase are skipped. When a batch fails, its phrases are retried one
// at a time and only the phrases that still fail are skipped and logged.
// Build fails with core.ErrCorpusEmpty when no entry survives; if batches
// failed, that error also wraps the first batch error.
func (b *Builder) Build(ctx context.Context, records []core.RawRecord) (*search.Index, Stats, error) {
	stats := Stats{Records: len(records)}

	pending, phrases := b.expand(records)
	stats.UniquePhrases = len(phrases)

	vectors, firstErr := b.encode(ctx, phrases, &stats)
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	entries := make([]core.CatalogEntry, 0, len(pending))
	produced := make(map[int]struct{}, len(records))
	for _, p := range pending {
		vector := vectors[p.phrase]
		if vector == nil {
			continue
		}
		produced[p.record] = struct{}{}
		entries = append(entries, core.CatalogEntry{
			Id:               core.IDFromContent(p.normalized),
			DisplayPhrase:    p.display,
			NormalizedPhrase: p.normalized,
			Topics:           p.topics,
			Vector:           vector,
		})
	}
	stats.Entries = len(entries)
	stats.Skipped = len(records) - len(produced)

	if len(entries) == 0 {
		if firstErr != nil {
			return nil, stats, fmt.Errorf("%w: %d records, %d failed phrases: %w",
				core.ErrCorpusEmpty, len(records), stats.FailedPhrases, firstErr)
		}
		return nil, stats, fmt.Errorf("%w: %d records produced no entries", core.ErrCorpusEmpty, len(records))
	}

	index, err := search.NewIndex(entries, b.normalizer)
	if err != nil {
		return nil, stats, err
	}

	b.logger.Info("index built",
		"records", stats.Records,
		"skipped", stats.Skipped,
		"entries", stats.Entries,
		"unique_phrases", stats.UniquePhrases,
		"failed_batches", stats.FailedBatches,
		"failed_phrases", stats.FailedPhrases,
		"cache_hits", stats.Cache.Hits,
		"cache_misses", stats.Cache.Misses)

	return index, stats, nil
}

// expand validates records and splits them into pending entries. It returns
// the entries in corpus order and the distinct normalized phrases in
// first-seen order.
func (b *Builder) expand(records []core.RawRecord) ([]pendingEntry, []string) {
	var pending []pendingEntry
	var phrases []string
	phraseIdx := make(map[string]int)

	for i, record := range records {
		if err := core.ValidateRawRecord(&record); err != nil {
			b.logger.Debug("skipping record", "source", record.Source, "row", record.Row, "err", err)
			continue
		}

		topics := CleanTopics(record.Topics)
		emitted := 0
		for _, alt := range SplitAlternatives(record.Phrase) {
			normalized := b.normalizer.Normalize(alt)
			if normalized == "" {
				continue
			}
			idx, ok := phraseIdx[normalized]
			if !ok {
				idx = len(phrases)
				phraseIdx[normalized] = idx
				phrases = append(phrases, normalized)
			}
			pending = append(pending, pendingEntry{
				display:    alt,
				normalized: normalized,
				topics:     topics,
				phrase:     idx,
				record:     i,
			})
			emitted++
		}
		if emitted == 0 {
			b.logger.Debug("skipping record with no usable phrase",
				"source", record.Source, "row", record.Row, "phrase", record.Phrase)
		}
	}
	return pending, phrases
}

// encode embeds phrases batch by batch on the worker pool and records cache
// and failure counts in stats. The returned slice has a nil vector for every
// phrase that could not be encoded.
func (b *Builder) encode(ctx context.Context, phrases []string, stats *Stats) ([][]float32, error) {
	vectors := make([][]float32, len(phrases))

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)

	record := func(cache embedding.CacheStats, failedBatches, failedPhrases int, err error) {
		mu.Lock()
		defer mu.Unlock()
		stats.Cache = stats.Cache.Add(cache)
		stats.FailedBatches += failedBatches
		stats.FailedPhrases += failedPhrases
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if b.progress != nil {
		b.progress.Start(len(phrases))
		defer b.progress.Finish()
	}

	for start := 0; start < len(phrases); start += b.batchSize {
		end := min(start+b.batchSize, len(phrases))
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		submitErr := b.pool.Submit(func() {
			defer wg.Done()

			batch, cache, err := b.encoder.EncodeBatch(ctx, phrases[start:end])
			if err == nil {
				copy(vectors[start:end], batch)
				record(cache, 0, 0, nil)
				if b.progress != nil {
					b.progress.Increment(end - start)
				}
				return
			}

			b.logger.Error("failed to encode batch", "from", start, "to", end, "err", err)
			if end-start == 1 || ctx.Err() != nil {
				record(cache, 1, end-start, err)
				return
			}
			record(embedding.CacheStats{}, 1, 0, err)
			b.encodeEach(ctx, phrases, start, end, vectors, record)
		})
		if submitErr != nil {
			wg.Done()
			record(embedding.CacheStats{}, 1, end-start, fmt.Errorf("%w: %w", core.ErrEncodingFailure, submitErr))
		}
	}
	wg.Wait()

	return vectors, firstErr
}

// encodeEach encodes phrases[start:end] one at a time so a single rejected
// phrase does not take its batch neighbours down with it.
func (b *Builder) encodeEach(ctx context.Context, phrases []string, start, end int, vectors [][]float32,
	record func(embedding.CacheStats, int, int, error)) {
	for i := start; i < end; i++ {
		if ctx.Err() != nil {
			record(embedding.CacheStats{}, 0, end-i, nil)
			return
		}
		single, cache, err := b.encoder.EncodeBatch(ctx, phrases[i:i+1])
		if err != nil {
			b.logger.Warn("skipping phrase", "phrase", phrases[i], "err", err)
			record(cache, 0, 1, nil)
			continue
		}
		vectors[i] = single[0]
		record(cache, 0, 0, nil)
		if b.progress != nil {
			b.progress.Increment(1)
		}
	}
}
