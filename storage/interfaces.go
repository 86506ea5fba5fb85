package storage

import "context"

// EmbeddingCache persists phrase embeddings between index builds so that an
// unchanged corpus does not have to be re-encoded by the embedding provider.
// Entries are scoped by model: a vector produced by one model is never
// returned for another. Implementations must be thread-safe.
type EmbeddingCache interface {
	// Lookup returns one slot per text, in input order. A nil slot is a miss.
	Lookup(ctx context.Context, model string, texts []string) ([][]float32, error)

	// Store saves vectors[i] as the embedding of texts[i] under model.
	// Returns ErrInvalidQuery if the slices differ in length.
	Store(ctx context.Context, model string, texts []string, vectors [][]float32) error

	// Close releases resources held by the cache.
	Close() error
}
