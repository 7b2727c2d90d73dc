package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docshelf/canopy/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient_RequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient("")
	require.ErrorIs(t, err, ErrBaseURLRequired)
}

func TestGetDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/documents/doc-1", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"id":       "doc-1",
			"title":    "Design Notes",
			"url":      "https://example.test/doc-1",
			"archived": false,
			"properties": map[string]string{
				"owner": "platform",
			},
		})
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL, WithToken("secret"), WithRateLimit(1000))
	require.NoError(t, err)

	doc, err := client.GetDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.Id)
	assert.Equal(t, "Design Notes", doc.Title)
	assert.Equal(t, "platform", doc.Properties["owner"])
	assert.False(t, doc.Archived)
}

func TestGetDocument_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusUnauthorized, ErrPermissionDenied},
		{http.StatusForbidden, ErrPermissionDenied},
		{http.StatusTooManyRequests, ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client, err := NewHTTPClient(server.URL, WithRateLimit(1000))
			require.NoError(t, err)

			_, err = client.GetDocument(context.Background(), "doc-1")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "expected %v, got %v", tt.want, err)
		})
	}
}

func TestGetChildren_FollowsPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/nodes/root/children", r.URL.Path)

		cursor := r.URL.Query().Get("start_cursor")
		switch cursor {
		case "":
			json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]any{
					{"id": "b1", "type": "heading_1", "text": "Overview"},
					{"id": "b2", "type": "paragraph", "text": "First paragraph.", "has_children": true},
				},
				"has_more":    true,
				"next_cursor": "page-2",
			})
		case "page-2":
			json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]any{
					{"id": "b3", "type": "mystery_block", "text": "tail"},
				},
				"has_more": false,
			})
		default:
			t.Errorf("unexpected cursor %q", cursor)
		}
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL, WithRateLimit(1000), WithPageSize(2))
	require.NoError(t, err)

	nodes, err := client.GetChildren(context.Background(), "root")
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	assert.Equal(t, core.NodeTypeHeading1, nodes[0].Type)
	assert.Equal(t, "Overview", nodes[0].RawContent)
	assert.True(t, nodes[1].HasChildren)
	assert.Equal(t, core.NodeTypeUnknown, nodes[2].Type, "unrecognized wire types map to unknown")
}

func TestGetChildren_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": []any{}, "has_more": false})
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL, WithRateLimit(1000))
	require.NoError(t, err)

	nodes, err := client.GetChildren(context.Background(), "leaf")
	require.NoError(t, err)
	assert.Empty(t, nodes)
}
