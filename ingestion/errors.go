package ingestion

import "errors"

var (
	// ErrEncoderRequired is returned when an encoder is not provided.
	ErrEncoderRequired = errors.New("encoder required")

	// ErrNormalizerRequired is returned when a normalizer is not provided.
	ErrNormalizerRequired = errors.New("normalizer required")
)
