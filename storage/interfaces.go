package storage

import (
	"context"

	"github.com/docshelf/canopy/core"
)

// Repository provides common storage operations shared across backends.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// FindSimilar finds embedded chunks similar to the given vector.
	// Returns hits with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.RetrievalHit, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository is the document store adapter consumed by the
// migration pipeline and the retrieval ranker.
//
// All per-document write operations (ReplaceNodes, ReplaceEmbeddings,
// DeleteEmbeddings) are scoped to a single document id. Implementations
// must tolerate concurrent writes to disjoint document ids without
// external locking; concurrent migrations of different documents must
// never interleave on the same rows.
type DocumentRepository interface {
	Repository

	// UpsertDocument inserts or updates a document keyed by its remote id.
	// The internal Id is derived from RemoteId, so repeated migrations of
	// the same remote document land on the same row. InsertedAt is
	// preserved across updates; UpdatedAt is refreshed.
	UpsertDocument(ctx context.Context, doc *core.StoredDocument) (*core.StoredDocument, error)

	// GetDocument retrieves a document by internal id.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.StoredDocument, error)

	// GetDocumentByRemoteId retrieves a document by its remote id.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocumentByRemoteId(ctx context.Context, remoteId string) (*core.StoredDocument, error)

	// ListDocuments returns all stored documents, including archived ones.
	ListDocuments(ctx context.Context) ([]*core.StoredDocument, error)

	// ReplaceNodes replaces all nodes for a document: existing nodes are
	// deleted, then the given nodes are inserted in Position order.
	ReplaceNodes(ctx context.Context, documentId core.ID, nodes []*core.StoredNode) error

	// GetNodes returns a document's nodes ordered by Position.
	GetNodes(ctx context.Context, documentId core.ID) ([]*core.StoredNode, error)

	// ReplaceEmbeddings replaces all embedding records for a document:
	// existing records are deleted first, then the new batch is inserted.
	// A crash between the two steps leaves the document with no embedding
	// records (a detectable state) rather than duplicated ones.
	ReplaceEmbeddings(ctx context.Context, documentId core.ID, records []*core.EmbeddingRecord) error

	// DeleteEmbeddings removes all embedding records for a document.
	// Deleting embeddings for a document that has none is not an error.
	DeleteEmbeddings(ctx context.Context, documentId core.ID) error

	// GetEmbeddings returns a document's embedding records ordered by
	// chunk index.
	GetEmbeddings(ctx context.Context, documentId core.ID) ([]*core.EmbeddingRecord, error)

	// CountEmbeddings returns the number of embedding records stored for
	// a document.
	CountEmbeddings(ctx context.Context, documentId core.ID) (int, error)

	// KeywordSearchChunks scans embedded chunks for case-insensitive
	// substring matches of the given keywords. A chunk's score is the
	// fraction of keywords it matches; chunks matching no keyword are
	// omitted. Returns up to limit hits ordered by score descending.
	KeywordSearchChunks(ctx context.Context, keywords []string, limit int) ([]*core.RetrievalHit, error)
}
