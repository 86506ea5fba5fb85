package ai

import "context"

// Embedder maps text to vectors whose cosine similarity reflects semantic
// closeness. Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedText returns the vector of a single text, typically a query.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts returns one vector per text, in input order. Vectors need
	// not be normalized; callers normalize them before comparison.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
