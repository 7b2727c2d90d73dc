// Package remote defines the client contract for the workspace content
// API and provides a rate-limited HTTP implementation.
//
// The API exposes documents and their block trees. Documents carry
// metadata (title, parent, archival state); blocks are fetched one
// level at a time through a cursor-paginated children endpoint. The
// HTTP client throttles outbound requests with a token bucket so a
// recursive tree walk cannot exceed the remote's rate limits.
package remote
