// Package embedding turns normalized phrases into unit-length vectors for
// cosine similarity search.
//
// The Encoder wraps an ai.Embedder with an optional persistent embedding
// cache, retry logic with exponential backoff, and vector normalization.
// ProgressTracker reports throughput of long encoding runs such as a cold
// corpus build or a cache warm-up.
package embedding
