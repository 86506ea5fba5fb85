package embedding

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrVectorCount is returned when the provider answers a batch with
	// a different number of vectors than texts.
	ErrVectorCount = errors.New("embedding count mismatch")

	// ErrDimensionMismatch is returned when vectors of one batch disagree
	// in length, or a vector is empty.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrDegenerateVector is returned when the provider answers with a
	// vector that has no direction: all zeros, NaN or infinite components.
	ErrDegenerateVector = errors.New("degenerate embedding vector")
)
