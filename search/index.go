package search

import (
	"fmt"
	"iter"
	"strings"

	"github.com/poiesic/phrasematch/core"
	"github.com/poiesic/phrasematch/text"
)

// Index is an immutable, searchable catalog: every entry carries its
// normalized phrase and unit-length embedding. An Index is safe for
// concurrent use by any number of readers; a corpus refresh builds a new
// Index instead of editing a published one.
type Index struct {
	entries    []core.CatalogEntry
	normalizer *text.Normalizer
	dim        int
}

// NewIndex builds an index from entries in corpus order. Ordinals are
// reassigned to the slice position. Returns core.ErrCorpusEmpty for an
// empty slice. Entries must have non-empty normalized phrases and vectors
// of one common dimension.
func NewIndex(entries []core.CatalogEntry, normalizer *text.Normalizer) (*Index, error) {
	if normalizer == nil {
		return nil, ErrNormalizerRequired
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no catalog entries", core.ErrCorpusEmpty)
	}

	dim := len(entries[0].Vector)
	owned := make([]core.CatalogEntry, len(entries))
	for i, entry := range entries {
		if strings.TrimSpace(entry.NormalizedPhrase) == "" {
			return nil, fmt.Errorf("%w: entry %d %q", core.ErrEmptyPhrase, i, entry.DisplayPhrase)
		}
		if dim == 0 || len(entry.Vector) != dim {
			return nil, fmt.Errorf("%w: entry %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(entry.Vector), dim)
		}
		entry.Ordinal = i
		owned[i] = entry
	}

	return &Index{entries: owned, normalizer: normalizer, dim: dim}, nil
}

// Len returns the number of catalog entries.
func (x *Index) Len() int {
	return len(x.entries)
}

// Dimension returns the embedding dimension shared by all entries.
func (x *Index) Dimension() int {
	return x.dim
}

// Normalizer returns the normalizer the index was built with. Queries must
// go through the same normalizer so both matching paths agree on word identity.
func (x *Index) Normalizer() *text.Normalizer {
	return x.normalizer
}

// Entry returns the entry at ordinal i.
func (x *Index) Entry(i int) core.CatalogEntry {
	return x.entries[i]
}

// All yields every entry in corpus order. Callers must not modify the
// returned slices.
func (x *Index) All() iter.Seq2[int, core.CatalogEntry] {
	return func(yield func(int, core.CatalogEntry) bool) {
		for i, entry := range x.entries {
			if !yield(i, entry) {
				return
			}
		}
	}
}
