package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/phrasematch/storage"
)

// EmbeddingCache implements storage.EmbeddingCache for BadgerDB.
type EmbeddingCache struct {
	backend     *Backend
	ownsBackend bool
}

var _ storage.EmbeddingCache = (*EmbeddingCache)(nil)

// NewEmbeddingCache creates an embedding cache on an open backend.
// The caller remains responsible for closing the backend.
func NewEmbeddingCache(backend *Backend) (storage.EmbeddingCache, error) {
	return newEmbeddingCache(backend, false)
}

// OpenEmbeddingCache opens a backend at path and returns a cache that closes
// the backend when the cache is closed.
func OpenEmbeddingCache(path string, opts ...BackendOption) (storage.EmbeddingCache, error) {
	backend, err := OpenBackend(path, false, opts...)
	if err != nil {
		return nil, fmt.Errorf("opening embedding cache: %w", err)
	}
	return newEmbeddingCache(backend, true)
}

func newEmbeddingCache(backend *Backend, owns bool) (*EmbeddingCache, error) {
	if backend == nil {
		return nil, errors.New("embedding cache: backend is required")
	}
	return &EmbeddingCache{backend: backend, ownsBackend: owns}, nil
}

// Lookup returns the cached vector of every text, or nil for misses.
func (c *EmbeddingCache) Lookup(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if c.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	vectors := make([][]float32, len(texts))
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		for i, text := range texts {
			if err := ctx.Err(); err != nil {
				return err
			}
			entry, err := readEntry(tx, makeEmbeddingKey(model, text))
			if err != nil {
				return err
			}
			// A different model or text under the same key is a hash collision.
			if entry == nil || entry.Model != model || entry.Text != text {
				continue
			}
			vectors[i] = entry.Vector
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

// Store writes vectors to the cache in a single transaction.
func (c *EmbeddingCache) Store(ctx context.Context, model string, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("%w: %d texts, %d vectors", storage.ErrInvalidQuery, len(texts), len(vectors))
	}
	if c.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	return c.backend.WithTx(func(tx *badger.Txn) error {
		for i, text := range texts {
			if err := ctx.Err(); err != nil {
				return err
			}
			if len(vectors[i]) == 0 {
				continue
			}
			value := storage.MarshalCacheEntry(&storage.CacheEntry{
				Model:  model,
				Text:   text,
				Vector: vectors[i],
			})
			if err := tx.Set(makeEmbeddingKey(model, text), value); err != nil {
				return err
			}
		}
		return nil
	}, true)
}

// Close closes the backend if this cache opened it.
func (c *EmbeddingCache) Close() error {
	if !c.ownsBackend || c.backend.IsClosed() {
		return nil
	}
	return c.backend.Close()
}

// readEntry reads a cache entry from the transaction.
func readEntry(tx *badger.Txn, key []byte) (*storage.CacheEntry, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var entry *storage.CacheEntry
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		entry, unmarshalErr = storage.UnmarshalCacheEntry(val)
		return unmarshalErr
	})
	return entry, err
}
