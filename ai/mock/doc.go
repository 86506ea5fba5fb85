// Package mock provides test double implementations of AI service interfaces.
//
// MockEmbedder implements ai.Embedder without an external embedding service.
// By default it hashes character trigrams into a fixed-size unit vector, so
// phrases that share words score higher than unrelated ones and results stay
// deterministic across runs.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	embedder := mock.NewMockEmbedder()
//	vector, err := embedder.EmbedText(ctx, "потерял симку")
//
//	// Custom behavior injection
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("service unavailable")
//	}
//
//	// Check call counts
//	count := embedder.CallCount()
package mock
