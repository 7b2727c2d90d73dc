package canopy

import (
	"context"
	"strings"
	"testing"

	"github.com/docshelf/canopy/ai"
	"github.com/docshelf/canopy/ai/mock"
	"github.com/docshelf/canopy/core"
	"github.com/docshelf/canopy/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRemote serves a small fixed workspace: two documents with flat
// block trees.
type stubRemote struct {
	docs   map[string]*core.RemoteDocument
	blocks map[string][]*core.Node
}

func (s *stubRemote) GetDocument(ctx context.Context, id string) (*core.RemoteDocument, error) {
	if doc, ok := s.docs[id]; ok {
		return doc, nil
	}
	return nil, assertNotFound{}
}

func (s *stubRemote) GetChildren(ctx context.Context, nodeId string) ([]*core.Node, error) {
	src := s.blocks[nodeId]
	out := make([]*core.Node, len(src))
	for i, n := range src {
		clone := *n
		out[i] = &clone
	}
	return out, nil
}

type assertNotFound struct{}

func (assertNotFound) Error() string { return "document not found" }

func newStubRemote() *stubRemote {
	return &stubRemote{
		docs: map[string]*core.RemoteDocument{
			"doc-a": {Id: "doc-a", Title: "Deploy Guide", URL: "https://w.test/doc-a"},
			"doc-b": {Id: "doc-b", Title: "Oncall Handbook", URL: "https://w.test/doc-b"},
		},
		blocks: map[string][]*core.Node{
			"doc-a": {
				{Id: "a1", Type: core.NodeTypeHeading1, RawContent: "Rollout"},
				{Id: "a2", Type: core.NodeTypeParagraph, RawContent: "Run the rollout script and watch the deployment dashboard."},
			},
			"doc-b": {
				{Id: "b1", Type: core.NodeTypeParagraph, RawContent: "Page the secondary when the primary does not acknowledge."},
			},
		},
	}
}

func newTestService(t *testing.T) (*Service, *mock.MockProvider) {
	t.Helper()

	provider := mock.NewMockProvider().(*mock.MockProvider)
	svc, err := NewService("", "http://unused.test",
		WithInMemoryStore(),
		WithRemoteClient(newStubRemote()),
		WithProvider(provider),
		WithChunkParams(200, 40),
	)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc, provider
}

func TestService_MigrateAndSearch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	summary, err := svc.MigrateAll(ctx, []string{"doc-a", "doc-b"})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Successful)
	assert.Zero(t, summary.Failed)

	// Keyword-only search keeps the test independent of mock vector
	// geometry.
	ranked, err := svc.Search(ctx, "rollout deployment", &search.Options{UseEmbeddings: false})
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "Deploy Guide", ranked[0].Title)
	assert.Contains(t, ranked[0].MergedText, "rollout script")
}

func TestService_MigrateFailureIsReported(t *testing.T) {
	svc, _ := newTestService(t)

	summary, err := svc.MigrateAll(context.Background(), []string{"doc-a", "missing"})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Successful)
	assert.Equal(t, 1, summary.Failed)
	assert.Len(t, summary.PerDocument, 2)
}

func TestService_MigrateStored(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.MigrateAll(ctx, []string{"doc-a"})
	require.NoError(t, err)

	summary, err := svc.MigrateStored(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Successful)
}

func TestService_BuildContext(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.MigrateAll(ctx, []string{"doc-a", "doc-b"})
	require.NoError(t, err)

	block, err := svc.BuildContext(ctx, "secondary acknowledge primary", &search.Options{UseEmbeddings: false})
	require.NoError(t, err)
	assert.Contains(t, block, "## Oncall Handbook")
	assert.Contains(t, block, "Page the secondary")
}

func TestService_Chat(t *testing.T) {
	svc, provider := newTestService(t)
	ctx := context.Background()

	_, err := svc.MigrateAll(ctx, []string{"doc-a"})
	require.NoError(t, err)

	var capturedPrompt string
	provider.GetMockChatModel().GenerateTextFunc = func(ctx context.Context, systemPrompt string, messages []ai.ChatMessage) (string, error) {
		capturedPrompt = systemPrompt
		return "canned answer", nil
	}

	answer, err := svc.Chat(ctx, []ai.ChatMessage{
		{Role: ai.ChatRoleUser, Content: "how do I run the rollout deployment?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "canned answer", answer)
	assert.True(t, strings.Contains(capturedPrompt, "rollout script") ||
		strings.Contains(capturedPrompt, "no matching documents"))
}

func TestService_ChatRequiresUserMessage(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Chat(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoMessages)

	_, err = svc.Chat(context.Background(), []ai.ChatMessage{
		{Role: ai.ChatRoleAssistant, Content: "hello"},
	})
	require.ErrorIs(t, err, ErrNoMessages)
}
