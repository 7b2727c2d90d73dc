package badger

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/docshelf/canopy/core"
	"github.com/docshelf/canopy/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	return &DocumentRepository{backend: backend}, nil
}

// Close releases repository resources. The underlying backend is owned by
// the caller and is not closed here.
func (r *DocumentRepository) Close() error {
	return nil
}

// FindSimilar delegates to the backend.
func (r *DocumentRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.RetrievalHit, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// UpsertDocument inserts or updates a document keyed by its remote id.
func (r *DocumentRepository) UpsertDocument(ctx context.Context, doc *core.StoredDocument) (*core.StoredDocument, error) {
	if err := core.ValidateStoredDocument(doc); err != nil {
		return nil, err
	}

	doc.Id = core.IDFromContent(doc.RemoteId)

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(doc.Id)

		// Stored times are microsecond precision, so the returned
		// document must match what a later read decodes.
		now := time.Now().UTC().Truncate(time.Microsecond)
		existing, err := r.readDocument(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			doc.InsertedAt = existing.InsertedAt
		} else {
			doc.InsertedAt = now
		}
		doc.UpdatedAt = now

		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocument retrieves a document by internal id.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.StoredDocument, error) {
	var doc *core.StoredDocument

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = r.readDocument(tx, makeDocumentKey(id))
		return err
	}, false)

	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, storage.ErrNotFound
	}
	return doc, nil
}

// GetDocumentByRemoteId retrieves a document by its remote id.
func (r *DocumentRepository) GetDocumentByRemoteId(ctx context.Context, remoteId string) (*core.StoredDocument, error) {
	return r.GetDocument(ctx, core.IDFromContent(remoteId))
}

// ListDocuments returns all stored documents, including archived ones.
func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]*core.StoredDocument, error) {
	var docs []*core.StoredDocument

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.StoredDocument
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if doc != nil {
				docs = append(docs, doc)
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return docs, nil
}

// ReplaceNodes replaces all nodes for a document, preserving Position order.
func (r *DocumentRepository) ReplaceNodes(ctx context.Context, documentId core.ID, nodes []*core.StoredNode) error {
	for _, node := range nodes {
		if err := core.ValidateStoredNode(node); err != nil {
			return err
		}
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deletePrefix(tx, makePartialNodeKey(documentId)); err != nil {
			return err
		}
		for _, node := range nodes {
			key := makeNodeKey(documentId, node.Position)
			if err := tx.Set(key, storage.MarshalNode(node)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetNodes returns a document's nodes ordered by Position.
func (r *DocumentRepository) GetNodes(ctx context.Context, documentId core.ID) ([]*core.StoredNode, error) {
	var nodes []*core.StoredNode

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialNodeKey(documentId)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Keys sort by big-endian position, so iteration order is
		// position order.
		for iter.Rewind(); iter.Valid(); iter.Next() {
			var node *core.StoredNode
			err := iter.Item().Value(func(val []byte) error {
				var err error
				node, err = storage.UnmarshalNode(val)
				return err
			})
			if err != nil {
				return err
			}
			if node != nil {
				nodes = append(nodes, node)
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return nodes, nil
}

// ReplaceEmbeddings replaces all embedding records for a document.
// Existing records are deleted before the new batch is inserted.
func (r *DocumentRepository) ReplaceEmbeddings(ctx context.Context, documentId core.ID, records []*core.EmbeddingRecord) error {
	for _, record := range records {
		if err := core.ValidateEmbeddingRecord(record); err != nil {
			return err
		}
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deletePrefix(tx, makePartialEmbeddingKey(documentId)); err != nil {
			return err
		}
		for _, record := range records {
			key := makeEmbeddingKey(documentId, record.ChunkIndex)
			if err := tx.Set(key, storage.MarshalEmbeddingRecord(record)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteEmbeddings removes all embedding records for a document.
func (r *DocumentRepository) DeleteEmbeddings(ctx context.Context, documentId core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deletePrefix(tx, makePartialEmbeddingKey(documentId)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetEmbeddings returns a document's embedding records ordered by chunk index.
func (r *DocumentRepository) GetEmbeddings(ctx context.Context, documentId core.ID) ([]*core.EmbeddingRecord, error) {
	var records []*core.EmbeddingRecord

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialEmbeddingKey(documentId)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.EmbeddingRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalEmbeddingRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record != nil {
				records = append(records, record)
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return records, nil
}

// CountEmbeddings returns the number of embedding records for a document.
func (r *DocumentRepository) CountEmbeddings(ctx context.Context, documentId core.ID) (int, error) {
	count := 0

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialEmbeddingKey(documentId)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)

	if err != nil {
		return 0, err
	}
	return count, nil
}

// KeywordSearchChunks scans embedded chunks for case-insensitive substring
// matches of the given keywords.
func (r *DocumentRepository) KeywordSearchChunks(ctx context.Context, keywords []string, limit int) ([]*core.RetrievalHit, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}

	var hits []*core.RetrievalHit

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(embeddingPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.EmbeddingRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalEmbeddingRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record == nil {
				continue
			}

			text := strings.ToLower(record.Text)
			matched := 0
			for _, kw := range lowered {
				if strings.Contains(text, kw) {
					matched++
				}
			}
			if matched == 0 {
				continue
			}

			hits = append(hits, &core.RetrievalHit{
				DocumentId: record.DocumentId,
				ChunkIndex: record.ChunkIndex,
				ChunkText:  record.Text,
				Section:    record.Section,
				Score:      float32(matched) / float32(len(lowered)),
			})
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	slices.SortFunc(hits, func(a, b *core.RetrievalHit) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// readDocument reads a document record by key within a transaction.
// Returns nil (no error) if the key doesn't exist.
func (r *DocumentRepository) readDocument(tx *badger.Txn, key []byte) (*core.StoredDocument, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.StoredDocument
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// deletePrefix removes all keys under the given prefix within a transaction.
// Keys are collected before deletion since badger iterators don't allow
// deleting while iterating.
func deletePrefix(tx *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	iter.Close()

	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
