package phrasematch

import "errors"

var (
	// ErrNotReady is returned by searches issued before any index was published.
	// It is distinct from an empty result.
	ErrNotReady = errors.New("engine has no index")

	// ErrEngineClosed is returned by operations on a closed engine.
	ErrEngineClosed = errors.New("engine closed")
)
