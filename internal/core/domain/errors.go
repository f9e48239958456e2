package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmbeddingUnavailable means no query vector could be obtained. It is
	// fatal for the current request; callers decide retry vs degrade.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrIndexUnavailable means the vector index could not serve a search.
	// The retrieval core degrades to the simplified fallback path on it.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrDimensionMismatch means a vector's dimensionality does not match the
	// index's configured embedding dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	ErrDocumentNotFound = errors.New("source document not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
