package search

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/poiesic/phrasematch/core"
)

// QueryEncoder encodes a normalized query into a unit-length vector.
// embedding.Encoder satisfies it.
type QueryEncoder interface {
	EncodeQuery(ctx context.Context, text string) ([]float32, error)
}

// Rank normalizes query, encodes it and returns at most topK entries whose
// cosine similarity is >= threshold, best first. Ties keep corpus order.
// A query that normalizes to nothing yields no results and no encoder call.
// Rank never mutates the index.
func Rank(ctx context.Context, encoder QueryEncoder, query string, idx *Index, topK int, threshold float32) ([]core.MatchResult, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	return rankNormalized(ctx, encoder, idx.Normalizer().Normalize(query), idx, topK, threshold)
}

func rankNormalized(ctx context.Context, encoder QueryEncoder, normalized string, idx *Index, topK int, threshold float32) ([]core.MatchResult, error) {
	if encoder == nil {
		return nil, ErrEncoderRequired
	}
	if normalized == "" || topK <= 0 {
		return nil, nil
	}
	vector, err := encoder.EncodeQuery(ctx, normalized)
	if err != nil {
		return nil, err
	}
	return RankVector(vector, idx, topK, threshold)
}

// RankVector ranks the index against an already encoded query vector.
// A vector whose dimension differs from the index is an encoding failure.
func RankVector(vector []float32, idx *Index, topK int, threshold float32) ([]core.MatchResult, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if len(vector) != idx.Dimension() {
		return nil, fmt.Errorf("%w: %w: query has %d dimensions, index has %d",
			core.ErrEncodingFailure, ErrDimensionMismatch, len(vector), idx.Dimension())
	}
	if topK <= 0 {
		return nil, nil
	}

	type scored struct {
		ordinal int
		score   float32
	}
	var hits []scored
	for i, entry := range idx.All() {
		score := cosine(vector, entry.Vector)
		if score >= threshold {
			hits = append(hits, scored{ordinal: i, score: score})
		}
	}

	slices.SortStableFunc(hits, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	results := make([]core.MatchResult, len(hits))
	for i, hit := range hits {
		entry := idx.Entry(hit.ordinal)
		results[i] = core.MatchResult{
			Score:         hit.score,
			DisplayPhrase: entry.DisplayPhrase,
			Topics:        entry.Topics,
		}
	}
	return results, nil
}

// cosine returns the cosine similarity of a and b, clamped to [-1, 1].
// Zero vectors have similarity 0 with everything.
func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return float32(max(-1, min(1, sim)))
}
