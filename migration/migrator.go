// Copyright 2025 Docshelf Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/docshelf/canopy/ai"
	"github.com/docshelf/canopy/core"
	"github.com/docshelf/canopy/extract"
	"github.com/docshelf/canopy/fetch"
	"github.com/docshelf/canopy/remote"
	"github.com/docshelf/canopy/storage"
)

// maxNodeTextLen caps the text stored per node. Longer text is cut and
// the node marked truncated; the full text still flows into chunks.
const maxNodeTextLen = 2000

// Migrator runs the whole pipeline for a single document: fetch the
// tree, extract content, persist document and nodes, chunk, embed and
// persist embedding records.
type Migrator struct {
	client        remote.Client
	fetcher       *fetch.Fetcher
	repository    storage.DocumentRepository
	embedder      ai.Embedder
	chunkSize     int
	chunkOverlap  int
	maxDepth      int
	retryAttempts int
	retryDelay    time.Duration
	logger        *slog.Logger
}

// Option configures a Migrator.
type Option func(*Migrator) error

// WithChunkParams sets the chunk window size and overlap in characters.
// Defaults are extract.DefaultChunkSize and extract.DefaultChunkOverlap.
func WithChunkParams(size, overlap int) Option {
	return func(m *Migrator) error {
		if err := core.ValidateChunkParams(size, overlap); err != nil {
			return err
		}
		m.chunkSize = size
		m.chunkOverlap = overlap
		return nil
	}
}

// WithMaxDepth sets how deep the tree fetch descends.
// Default is fetch.DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(m *Migrator) error {
		if depth > 0 {
			m.maxDepth = depth
		}
		return nil
	}
}

// WithRetry sets the retry policy for embedding calls.
// Default is 3 attempts starting at one second.
func WithRetry(attempts int, baseDelay time.Duration) Option {
	return func(m *Migrator) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		m.retryAttempts = attempts
		m.retryDelay = baseDelay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Migrator) error {
		if logger != nil {
			m.logger = logger
		}
		return nil
	}
}

// NewMigrator creates a migrator over the given client, repository and
// embedder.
func NewMigrator(
	client remote.Client,
	repository storage.DocumentRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Migrator, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	m := &Migrator{
		client:        client,
		repository:    repository,
		embedder:      embedder,
		chunkSize:     extract.DefaultChunkSize,
		chunkOverlap:  extract.DefaultChunkOverlap,
		maxDepth:      fetch.DefaultMaxDepth,
		retryAttempts: 3,
		retryDelay:    time.Second,
		logger:        slog.Default().With("component", "migrator"),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	fetcher, err := fetch.NewFetcher(client, fetch.WithLogger(m.logger))
	if err != nil {
		return nil, err
	}
	m.fetcher = fetcher

	return m, nil
}

// MigrateDocument migrates one remote document end to end. It always
// returns a result, never an error: every failure is captured in the
// result's Errors and leaves Success false. A failure after the nodes
// were persisted does not roll them back; the document simply has no
// fresh embeddings until the next successful run.
func (m *Migrator) MigrateDocument(ctx context.Context, remoteId string) *core.MigrationResult {
	result := &core.MigrationResult{DocumentId: remoteId}

	doc, err := m.client.GetDocument(ctx, remoteId)
	if err != nil {
		return m.fail(result, "fetch document metadata", err)
	}
	result.Title = doc.Title

	fetched, err := m.fetcher.Fetch(ctx, remoteId, fetch.Options{MaxDepth: m.maxDepth})
	if err != nil {
		return m.fail(result, "fetch document tree", err)
	}
	result.NodesProcessed = fetched.TotalNodes

	content := extract.Extract(fetched.Nodes)

	stored, err := m.repository.UpsertDocument(ctx, buildStoredDocument(doc, content))
	if err != nil {
		return m.fail(result, "persist document", err)
	}

	nodes := buildStoredNodes(stored.Id, remoteId, fetched.Nodes)
	if err := m.repository.ReplaceNodes(ctx, stored.Id, nodes); err != nil {
		return m.fail(result, "persist nodes", err)
	}

	chunks, err := extract.ChunkNodes(fetched.Nodes, m.chunkSize, m.chunkOverlap)
	if err != nil {
		return m.fail(result, "chunk content", err)
	}
	if len(chunks) == 0 {
		m.logger.Warn("document produced no chunks, clearing stale embeddings",
			"document", remoteId, "title", doc.Title)
		if err := m.repository.ReplaceEmbeddings(ctx, stored.Id, nil); err != nil {
			return m.fail(result, "clear embeddings", err)
		}
		result.Success = true
		return result
	}

	records, err := m.embedChunks(ctx, stored, content.ContentHash, chunks)
	if err != nil {
		return m.fail(result, "embed chunks", err)
	}

	if err := m.repository.ReplaceEmbeddings(ctx, stored.Id, records); err != nil {
		return m.fail(result, "persist embeddings", err)
	}

	result.ChunksEmbedded = len(records)
	result.Success = true
	m.logger.Info("document migrated",
		"document", remoteId, "title", doc.Title,
		"nodes", result.NodesProcessed, "chunks", result.ChunksEmbedded)
	return result
}

// embedChunks embeds all chunk texts in one batched call, retried with
// backoff. The embedder must return exactly one vector per text; a
// count mismatch fails the document because chunk order can no longer
// be trusted.
func (m *Migrator) embedChunks(
	ctx context.Context,
	doc *core.StoredDocument,
	contentHash string,
	chunks []*core.Chunk,
) ([]*core.EmbeddingRecord, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	var vectors [][]float32
	err := retryWithBackoff(ctx, func() error {
		var embedErr error
		vectors, embedErr = m.embedder.EmbedTexts(ctx, texts)
		return embedErr
	}, m.retryAttempts, m.retryDelay)
	if err != nil {
		return nil, err
	}

	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks",
			ErrEmbeddingCountMismatch, len(vectors), len(chunks))
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	records := make([]*core.EmbeddingRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = &core.EmbeddingRecord{
			Id:            core.IDFromContent(fmt.Sprintf("%d:%d", doc.Id, chunk.Index)),
			DocumentId:    doc.Id,
			ChunkIndex:    chunk.Index,
			Text:          chunk.Text,
			Section:       chunk.Section,
			SourceNodeIds: chunk.SourceNodeIds,
			StartOffset:   chunk.StartOffset,
			EndOffset:     chunk.EndOffset,
			ContentHash:   contentHash,
			Vector:        core.NormalizeVector(vectors[i]),
			InsertedAt:    now,
		}
	}
	return records, nil
}

// fail records one pipeline failure on the result and logs it. The
// result's Errors keep the stage name so a batch report can show where
// each document died.
func (m *Migrator) fail(result *core.MigrationResult, stage string, err error) *core.MigrationResult {
	result.Success = false
	result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", stage, err))
	m.logger.Error("migration failed",
		"document", result.DocumentId, "stage", stage, "err", err)
	return result
}

// buildStoredDocument maps remote metadata plus extracted content onto
// the persisted document form.
func buildStoredDocument(doc *core.RemoteDocument, content *core.DocumentContent) *core.StoredDocument {
	return &core.StoredDocument{
		RemoteId:       doc.Id,
		Title:          doc.Title,
		URL:            doc.URL,
		ParentRemoteId: doc.ParentId,
		Properties:     doc.Properties,
		ContentHash:    content.ContentHash,
		WordCount:      content.WordCount,
		CharCount:      content.CharCount,
		Archived:       doc.Archived,
		CreatedAt:      doc.CreatedAt,
		LastEditedAt:   doc.LastEditedAt,
	}
}

// buildStoredNodes flattens the tree in pre-order into positioned
// stored nodes. Node text longer than maxNodeTextLen is cut and the
// node marked truncated.
func buildStoredNodes(documentId core.ID, documentRemoteId string, nodes []*core.Node) []*core.StoredNode {
	flat := fetch.Flatten(nodes)
	stored := make([]*core.StoredNode, len(flat))

	parentOf := map[string]string{}
	var mapParents func(parent string, level []*core.Node)
	mapParents = func(parent string, level []*core.Node) {
		for _, n := range level {
			parentOf[n.Id] = parent
			mapParents(n.Id, n.Children)
		}
	}
	mapParents(documentRemoteId, nodes)

	for i, node := range flat {
		text := node.RawContent
		truncated := node.HasChildren && len(node.Children) == 0
		if len(text) > maxNodeTextLen {
			text = text[:maxNodeTextLen]
			truncated = true
		}

		stored[i] = &core.StoredNode{
			Id:             core.IDFromContent(node.Id),
			DocumentId:     documentId,
			RemoteId:       node.Id,
			ParentRemoteId: parentOf[node.Id],
			Type:           node.Type,
			Text:           text,
			Position:       i,
			HasChildren:    node.HasChildren,
			Truncated:      truncated,
			CreatedAt:      node.CreatedAt,
			LastEditedAt:   node.LastEditedAt,
		}
	}
	return stored
}
