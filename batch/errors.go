package batch

import "errors"

// ErrMigratorRequired is returned when no document migrator is provided.
var ErrMigratorRequired = errors.New("document migrator is required")
