package badger

import (
	"context"
	"testing"

	"github.com/docshelf/canopy/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindSimilar(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	docId := core.IDFromContent("page-1")

	// Unit vectors: similarity to the query is the dot product.
	records := []*core.EmbeddingRecord{
		{DocumentId: docId, ChunkIndex: 0, Text: "exact match", Vector: []float32{1, 0, 0}},
		{DocumentId: docId, ChunkIndex: 1, Text: "orthogonal", Vector: []float32{0, 1, 0}},
		{DocumentId: docId, ChunkIndex: 2, Text: "partial", Vector: []float32{0.8, 0.6, 0}},
	}
	require.NoError(t, repo.ReplaceEmbeddings(ctx, docId, records))

	hits, err := backend.FindSimilar(ctx, []float32{1, 0, 0}, 0.5, 10)
	require.NoError(t, err)

	require.Len(t, hits, 2)
	assert.Equal(t, "exact match", hits[0].ChunkText)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, "partial", hits[1].ChunkText)
	assert.InDelta(t, 0.8, hits[1].Score, 1e-6)
}

func TestFindSimilarLimit(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	docId := core.IDFromContent("page-1")

	var records []*core.EmbeddingRecord
	for i := 0; i < 10; i++ {
		records = append(records, &core.EmbeddingRecord{
			DocumentId: docId,
			ChunkIndex: i,
			Text:       "chunk",
			Vector:     []float32{1, 0},
		})
	}
	require.NoError(t, repo.ReplaceEmbeddings(ctx, docId, records))

	hits, err := backend.FindSimilar(ctx, []float32{1, 0}, 0.9, 3)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestKeywordSearchChunks(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	docId := core.IDFromContent("page-1")

	records := []*core.EmbeddingRecord{
		{DocumentId: docId, ChunkIndex: 0, Text: "Deploy the billing service", Vector: []float32{1}},
		{DocumentId: docId, ChunkIndex: 1, Text: "Restart the billing database", Vector: []float32{1}},
		{DocumentId: docId, ChunkIndex: 2, Text: "Unrelated gardening notes", Vector: []float32{1}},
	}
	require.NoError(t, repo.ReplaceEmbeddings(ctx, docId, records))

	hits, err := repo.KeywordSearchChunks(ctx, []string{"billing", "deploy"}, 10)
	require.NoError(t, err)

	require.Len(t, hits, 2)
	// "Deploy the billing service" matches both keywords.
	assert.Equal(t, 0, hits[0].ChunkIndex)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, 1, hits[1].ChunkIndex)
	assert.InDelta(t, 0.5, hits[1].Score, 1e-6)
}

func TestKeywordSearchNoKeywords(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	hits, err := repo.KeywordSearchChunks(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
