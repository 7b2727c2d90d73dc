package remote

import (
	"context"

	"github.com/docshelf/canopy/core"
)

// Client is the remote content API consumed by the recursive fetcher.
// Implementations must be thread-safe for concurrent use.
type Client interface {
	// GetDocument fetches one document's metadata by remote id.
	GetDocument(ctx context.Context, id string) (*core.RemoteDocument, error)

	// GetChildren fetches the immediate children of a node. Returned
	// nodes carry HasChildren but have no Children populated; descending
	// into them is the fetcher's job, one call per node.
	GetChildren(ctx context.Context, nodeId string) ([]*core.Node, error)
}
