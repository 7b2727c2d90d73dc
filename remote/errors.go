package remote

import "errors"

var (
	// ErrNotFound indicates the remote document or node does not exist,
	// or the integration has no access to it.
	ErrNotFound = errors.New("remote object not found")
	// ErrPermissionDenied indicates the API token lacks access.
	ErrPermissionDenied = errors.New("permission denied by remote API")
	// ErrRateLimited indicates the remote API rejected the call for
	// exceeding its rate limit.
	ErrRateLimited = errors.New("rate limited by remote API")
	// ErrBaseURLRequired is returned when the HTTP client is constructed
	// without a base URL.
	ErrBaseURLRequired = errors.New("base URL required")
)
