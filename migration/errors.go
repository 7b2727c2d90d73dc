package migration

import "errors"

var (
	// ErrClientRequired is returned when no remote client is provided.
	ErrClientRequired = errors.New("remote client is required")

	// ErrRepositoryRequired is returned when no document repository is
	// provided.
	ErrRepositoryRequired = errors.New("document repository is required")

	// ErrEmbedderRequired is returned when no embedder is provided.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrInvalidMaxAttempts is returned for a non-positive retry count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than zero")

	// ErrEmbeddingCountMismatch is returned when the embedder yields a
	// different number of vectors than texts submitted. Order can no
	// longer be trusted, so the whole document fails.
	ErrEmbeddingCountMismatch = errors.New("embedding count does not match chunk count")
)
