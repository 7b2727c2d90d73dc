package fetch

import "errors"

var (
	// ErrClientRequired is returned when no remote client is provided.
	ErrClientRequired = errors.New("remote client is required")

	// ErrRootIdRequired is returned when Fetch is called with an empty
	// root id.
	ErrRootIdRequired = errors.New("root id is required")
)
