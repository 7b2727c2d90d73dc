package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/docshelf/canopy/core"
	"github.com/docshelf/canopy/storage"
)

func setupRepo(t *testing.T) (storage.DocumentRepository, func()) {
	t.Helper()

	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	return repo, func() {
		repo.Close()
		backend.Close()
	}
}

func TestDocumentUpsert(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()

	ctx := context.Background()

	doc := &core.StoredDocument{
		RemoteId:    "page-1",
		Title:       "Incident Runbook",
		ContentHash: "abc",
		CreatedAt:   time.Now().UTC(),
	}

	stored, err := repo.UpsertDocument(ctx, doc)
	if err != nil {
		t.Fatalf("Failed to upsert document: %v", err)
	}
	if stored.Id == 0 {
		t.Fatal("Expected non-zero internal ID")
	}
	if stored.Id != core.IDFromContent("page-1") {
		t.Fatal("Internal ID must be derived from the remote id")
	}
	firstInserted := stored.InsertedAt

	// Upsert again with new content: same row, InsertedAt preserved.
	doc2 := &core.StoredDocument{
		RemoteId:    "page-1",
		Title:       "Incident Runbook v2",
		ContentHash: "def",
	}
	stored2, err := repo.UpsertDocument(ctx, doc2)
	if err != nil {
		t.Fatalf("Failed to re-upsert document: %v", err)
	}
	if stored2.Id != stored.Id {
		t.Fatalf("Expected same internal ID on re-upsert, got %d vs %d", stored2.Id, stored.Id)
	}
	if !stored2.InsertedAt.Equal(firstInserted) {
		t.Fatal("InsertedAt must be preserved across upserts")
	}

	retrieved, err := repo.GetDocumentByRemoteId(ctx, "page-1")
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if retrieved.Title != "Incident Runbook v2" {
		t.Fatalf("Expected updated title, got %q", retrieved.Title)
	}

	docs, err := repo.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("Expected 1 document, got %d", len(docs))
	}
}

func TestDocumentNotFound(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()

	_, err := repo.GetDocument(context.Background(), 12345)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestReplaceNodes(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()

	ctx := context.Background()
	docId := core.IDFromContent("page-1")

	first := []*core.StoredNode{
		{RemoteId: "b1", DocumentId: docId, Type: core.NodeTypeHeading1, Text: "Intro", Position: 0},
		{RemoteId: "b2", DocumentId: docId, Type: core.NodeTypeParagraph, Text: "Old text", Position: 1},
		{RemoteId: "b3", DocumentId: docId, Type: core.NodeTypeParagraph, Text: "More", Position: 2},
	}
	if err := repo.ReplaceNodes(ctx, docId, first); err != nil {
		t.Fatalf("Failed to replace nodes: %v", err)
	}

	// Replace with fewer nodes: the old set must be gone entirely.
	second := []*core.StoredNode{
		{RemoteId: "b1", DocumentId: docId, Type: core.NodeTypeHeading1, Text: "Intro", Position: 0},
		{RemoteId: "b4", DocumentId: docId, Type: core.NodeTypeParagraph, Text: "New text", Position: 1},
	}
	if err := repo.ReplaceNodes(ctx, docId, second); err != nil {
		t.Fatalf("Failed to replace nodes: %v", err)
	}

	nodes, err := repo.GetNodes(ctx, docId)
	if err != nil {
		t.Fatalf("Failed to get nodes: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("Expected 2 nodes after replace, got %d", len(nodes))
	}
	if nodes[0].Position != 0 || nodes[1].Position != 1 {
		t.Fatal("Nodes must come back in position order")
	}
	if nodes[1].RemoteId != "b4" {
		t.Fatalf("Expected replaced node b4, got %q", nodes[1].RemoteId)
	}
}

func TestReplaceNodesDisjointDocuments(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()

	ctx := context.Background()
	docA := core.IDFromContent("page-a")
	docB := core.IDFromContent("page-b")

	nodesA := []*core.StoredNode{
		{RemoteId: "a1", DocumentId: docA, Type: core.NodeTypeParagraph, Text: "A", Position: 0},
	}
	nodesB := []*core.StoredNode{
		{RemoteId: "b1", DocumentId: docB, Type: core.NodeTypeParagraph, Text: "B", Position: 0},
	}

	if err := repo.ReplaceNodes(ctx, docA, nodesA); err != nil {
		t.Fatalf("Failed to store nodes for A: %v", err)
	}
	if err := repo.ReplaceNodes(ctx, docB, nodesB); err != nil {
		t.Fatalf("Failed to store nodes for B: %v", err)
	}

	// Replacing A must not touch B's rows.
	if err := repo.ReplaceNodes(ctx, docA, nil); err != nil {
		t.Fatalf("Failed to clear nodes for A: %v", err)
	}

	remaining, err := repo.GetNodes(ctx, docB)
	if err != nil {
		t.Fatalf("Failed to get nodes for B: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("Expected B's nodes untouched, got %d", len(remaining))
	}
}

func TestReplaceEmbeddings(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()

	ctx := context.Background()
	docId := core.IDFromContent("page-1")

	first := []*core.EmbeddingRecord{
		{DocumentId: docId, ChunkIndex: 0, Text: "chunk zero", Vector: []float32{1, 0}},
		{DocumentId: docId, ChunkIndex: 1, Text: "chunk one", Vector: []float32{0, 1}},
		{DocumentId: docId, ChunkIndex: 2, Text: "chunk two", Vector: []float32{1, 1}},
	}
	if err := repo.ReplaceEmbeddings(ctx, docId, first); err != nil {
		t.Fatalf("Failed to replace embeddings: %v", err)
	}

	count, err := repo.CountEmbeddings(ctx, docId)
	if err != nil {
		t.Fatalf("Failed to count embeddings: %v", err)
	}
	if count != 3 {
		t.Fatalf("Expected 3 embeddings, got %d", count)
	}

	// Re-migration replaces, never merges.
	second := []*core.EmbeddingRecord{
		{DocumentId: docId, ChunkIndex: 0, Text: "new chunk", Vector: []float32{0.5, 0.5}},
	}
	if err := repo.ReplaceEmbeddings(ctx, docId, second); err != nil {
		t.Fatalf("Failed to re-replace embeddings: %v", err)
	}

	count, err = repo.CountEmbeddings(ctx, docId)
	if err != nil {
		t.Fatalf("Failed to count embeddings: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected 1 embedding after replace, got %d", count)
	}

	records, err := repo.GetEmbeddings(ctx, docId)
	if err != nil {
		t.Fatalf("Failed to get embeddings: %v", err)
	}
	if records[0].Text != "new chunk" {
		t.Fatalf("Expected replaced record, got %q", records[0].Text)
	}
}

func TestDeleteEmbeddings(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()

	ctx := context.Background()
	docId := core.IDFromContent("page-1")

	records := []*core.EmbeddingRecord{
		{DocumentId: docId, ChunkIndex: 0, Text: "chunk", Vector: []float32{1}},
	}
	if err := repo.ReplaceEmbeddings(ctx, docId, records); err != nil {
		t.Fatalf("Failed to store embeddings: %v", err)
	}

	if err := repo.DeleteEmbeddings(ctx, docId); err != nil {
		t.Fatalf("Failed to delete embeddings: %v", err)
	}

	count, err := repo.CountEmbeddings(ctx, docId)
	if err != nil {
		t.Fatalf("Failed to count embeddings: %v", err)
	}
	if count != 0 {
		t.Fatalf("Expected 0 embeddings after delete, got %d", count)
	}

	// Deleting when nothing is stored is not an error.
	if err := repo.DeleteEmbeddings(ctx, docId); err != nil {
		t.Fatalf("Delete of empty set should succeed, got %v", err)
	}
}

func TestEmbeddingsOrderedByChunkIndex(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()

	ctx := context.Background()
	docId := core.IDFromContent("page-1")

	// Insert out of order; retrieval must be chunk-index order.
	records := []*core.EmbeddingRecord{
		{DocumentId: docId, ChunkIndex: 2, Text: "two", Vector: []float32{1}},
		{DocumentId: docId, ChunkIndex: 0, Text: "zero", Vector: []float32{1}},
		{DocumentId: docId, ChunkIndex: 1, Text: "one", Vector: []float32{1}},
	}
	if err := repo.ReplaceEmbeddings(ctx, docId, records); err != nil {
		t.Fatalf("Failed to store embeddings: %v", err)
	}

	got, err := repo.GetEmbeddings(ctx, docId)
	if err != nil {
		t.Fatalf("Failed to get embeddings: %v", err)
	}
	for i, record := range got {
		if record.ChunkIndex != i {
			t.Fatalf("Expected chunk index %d at position %d, got %d", i, i, record.ChunkIndex)
		}
	}
}
