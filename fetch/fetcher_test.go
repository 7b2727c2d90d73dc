package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/docshelf/canopy/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient serves a canned tree keyed by parent id.
type stubClient struct {
	children map[string][]*core.Node
	failures map[string]error
	calls    []string
}

func (s *stubClient) GetDocument(ctx context.Context, id string) (*core.RemoteDocument, error) {
	return &core.RemoteDocument{Id: id}, nil
}

func (s *stubClient) GetChildren(ctx context.Context, nodeId string) ([]*core.Node, error) {
	s.calls = append(s.calls, nodeId)
	if err, ok := s.failures[nodeId]; ok {
		return nil, err
	}

	// Copy so filtering in one fetch does not leak into the next.
	src := s.children[nodeId]
	out := make([]*core.Node, len(src))
	for i, n := range src {
		clone := *n
		clone.Children = nil
		out[i] = &clone
	}
	return out, nil
}

func node(id string, t core.NodeType, text string, hasChildren bool) *core.Node {
	return &core.Node{Id: id, Type: t, RawContent: text, HasChildren: hasChildren}
}

func newStub() *stubClient {
	return &stubClient{
		children: map[string][]*core.Node{
			"root": {
				node("h1", core.NodeTypeHeading1, "Overview", false),
				node("p1", core.NodeTypeParagraph, "Intro paragraph.", false),
				node("t1", core.NodeTypeToggle, "Details", true),
			},
			"t1": {
				node("p2", core.NodeTypeParagraph, "Nested paragraph.", false),
				node("t2", core.NodeTypeToggle, "Deeper", true),
			},
			"t2": {
				node("p3", core.NodeTypeParagraph, "Deepest.", false),
			},
		},
		failures: map[string]error{},
	}
}

func TestFetch_FullTree(t *testing.T) {
	f, err := NewFetcher(newStub())
	require.NoError(t, err)

	result, err := f.Fetch(context.Background(), "root", Options{MaxDepth: 5})
	require.NoError(t, err)

	require.Len(t, result.Nodes, 3)
	assert.Equal(t, 6, result.TotalNodes)
	assert.Equal(t, 3, result.APICalls)
	assert.Equal(t, 2, result.MaxDepthReached)

	toggle := result.Nodes[2]
	require.Len(t, toggle.Children, 2)
	require.Len(t, toggle.Children[1].Children, 1)
	assert.Equal(t, "Deepest.", toggle.Children[1].Children[0].RawContent)
}

func TestFetch_MaxDepthBoundsRecursion(t *testing.T) {
	stub := newStub()
	f, err := NewFetcher(stub)
	require.NoError(t, err)

	// Depth 0 is the root's children; depth 1 is one level below.
	result, err := f.Fetch(context.Background(), "root", Options{MaxDepth: 1})
	require.NoError(t, err)

	assert.Equal(t, 2, result.APICalls, "must not descend below depth 1")
	toggle := result.Nodes[2]
	require.Len(t, toggle.Children, 2)
	assert.Empty(t, toggle.Children[1].Children, "t2's children are beyond MaxDepth")
}

func TestFetch_ChildFailureDoesNotAbort(t *testing.T) {
	stub := newStub()
	stub.failures["t2"] = errors.New("rate limited")

	f, err := NewFetcher(stub)
	require.NoError(t, err)

	result, err := f.Fetch(context.Background(), "root", Options{MaxDepth: 5})
	require.NoError(t, err, "a failed subtree must not fail the fetch")

	toggle := result.Nodes[2]
	require.Len(t, toggle.Children, 2)
	assert.Empty(t, toggle.Children[1].Children)
	assert.Equal(t, 3, result.APICalls, "failed calls still count")
}

func TestFetch_RootFailureIsFatal(t *testing.T) {
	stub := newStub()
	stub.failures["root"] = errors.New("not found")

	f, err := NewFetcher(stub)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "root", Options{MaxDepth: 5})
	require.Error(t, err)
}

func TestFetch_NoDelayBeforeFirstRequest(t *testing.T) {
	stub := newStub()
	stub.children["root"] = []*core.Node{
		node("p1", core.NodeTypeParagraph, "Only child.", false),
	}

	f, err := NewFetcher(stub)
	require.NoError(t, err)

	// A single-request fetch has no "between requests" gap, so even a
	// long configured delay must not be waited out.
	start := time.Now()
	result, err := f.Fetch(context.Background(), "root", Options{
		MaxDepth:             5,
		DelayBetweenRequests: 2 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.APICalls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFetch_FiltersEmptyNodes(t *testing.T) {
	stub := newStub()
	stub.children["root"] = append(stub.children["root"],
		node("e1", core.NodeTypeParagraph, "   ", false),
		node("d1", core.NodeTypeDivider, "", false),
	)

	f, err := NewFetcher(stub)
	require.NoError(t, err)

	result, err := f.Fetch(context.Background(), "root", Options{MaxDepth: 5})
	require.NoError(t, err)

	ids := make([]string, len(result.Nodes))
	for i, n := range result.Nodes {
		ids[i] = n.Id
	}
	assert.NotContains(t, ids, "e1", "blank paragraph is filtered")
	assert.Contains(t, ids, "d1", "structural nodes are always kept")

	withEmpty, err := f.Fetch(context.Background(), "root", Options{MaxDepth: 5, IncludeEmptyNodes: true})
	require.NoError(t, err)
	assert.Len(t, withEmpty.Nodes, 5)
}

func TestFetchFlat_PreOrder(t *testing.T) {
	f, err := NewFetcher(newStub())
	require.NoError(t, err)

	flat, result, err := f.FetchFlat(context.Background(), "root", Options{MaxDepth: 5})
	require.NoError(t, err)
	require.Len(t, flat, result.TotalNodes)

	ids := make([]string, len(flat))
	for i, n := range flat {
		ids[i] = n.Id
	}
	assert.Equal(t, []string{"h1", "p1", "t1", "p2", "t2", "p3"}, ids)
}

func TestNewFetcher_RequiresClient(t *testing.T) {
	_, err := NewFetcher(nil)
	require.ErrorIs(t, err, ErrClientRequired)
}
