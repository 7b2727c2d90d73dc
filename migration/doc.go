// Package migration runs the per-document pipeline: fetch a document's
// metadata and block tree from the remote API, extract and chunk its
// content, embed the chunks and persist everything to the document
// store.
//
// The unit of failure is the document. MigrateDocument always returns a
// result describing what happened; an error in any stage marks the
// result failed and is never propagated as a Go error, so one bad
// document can never abort a batch run. Embedding records are replaced
// wholesale per document, which keeps re-migrations idempotent.
package migration
