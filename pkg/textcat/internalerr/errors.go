package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrStoreUnavailable = errors.New("store unavailable")

	// Pipeline aborts
	ErrSchema          = errors.New("schema mismatch")
	ErrEmptyInput      = errors.New("empty input")
	ErrEmptyVocabulary = errors.New("empty vocabulary")
)
