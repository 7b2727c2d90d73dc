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


package fetch

import (
	"context"
	"log/slog"
	"time"

	"github.com/docshelf/canopy/core"
	"github.com/docshelf/canopy/remote"
)

// DefaultMaxDepth bounds recursion when the caller does not set one.
const DefaultMaxDepth = 5

// Options controls a single tree fetch.
type Options struct {
	// MaxDepth is the deepest level of children to descend into.
	// Depth 0 is the root's direct children. Zero or negative values
	// fall back to DefaultMaxDepth.
	MaxDepth int

	// IncludeEmptyNodes keeps nodes with no text and no children in
	// the result. Structural nodes (dividers, media, tables) are kept
	// regardless.
	IncludeEmptyNodes bool

	// DelayBetweenRequests adds a fixed pause before each children
	// request, on top of the client's own rate limiting.
	DelayBetweenRequests time.Duration
}

// Result is the outcome of one tree fetch.
type Result struct {
	// Nodes are the root's direct children, each with its subtree
	// attached.
	Nodes []*core.Node

	// TotalNodes counts every node in the result, at all depths.
	TotalNodes int

	// MaxDepthReached is the deepest level the fetch actually visited.
	MaxDepthReached int

	// APICalls counts children requests made, including failed ones.
	APICalls int
}

// Fetcher walks a document's block tree one level at a time.
// A failed children request never fails the whole fetch; the affected
// node keeps an empty subtree and the walk continues.
type Fetcher struct {
	client remote.Client
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher creates a tree fetcher backed by the given client.
func NewFetcher(client remote.Client, opts ...Option) (*Fetcher, error) {
	if client == nil {
		return nil, ErrClientRequired
	}

	f := &Fetcher{
		client: client,
		logger: slog.Default().With("component", "fetcher"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// fetchState carries counters through one recursive walk.
type fetchState struct {
	opts     Options
	apiCalls int
	maxDepth int
}

// Fetch retrieves the block tree rooted at rootId down to opts.MaxDepth.
func (f *Fetcher) Fetch(ctx context.Context, rootId string, opts Options) (*Result, error) {
	if rootId == "" {
		return nil, ErrRootIdRequired
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}

	state := &fetchState{opts: opts}
	nodes, err := f.fetchLevel(ctx, rootId, 0, state)
	if err != nil {
		// Only the root request is fatal; deeper failures are
		// absorbed in fetchLevel.
		return nil, err
	}

	return &Result{
		Nodes:           nodes,
		TotalNodes:      countNodes(nodes),
		MaxDepthReached: state.maxDepth,
		APICalls:        state.apiCalls,
	}, nil
}

// fetchLevel fetches the children of parentId at the given depth and
// recurses into any child that reports children of its own.
func (f *Fetcher) fetchLevel(ctx context.Context, parentId string, depth int, state *fetchState) ([]*core.Node, error) {
	// The pause applies between requests, never before the first one.
	if state.opts.DelayBetweenRequests > 0 && state.apiCalls > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(state.opts.DelayBetweenRequests):
		}
	}

	state.apiCalls++
	children, err := f.client.GetChildren(ctx, parentId)
	if err != nil {
		return nil, err
	}
	if depth > state.maxDepth {
		state.maxDepth = depth
	}

	var kept []*core.Node
	for _, child := range children {
		if child.HasChildren && depth < state.opts.MaxDepth {
			sub, err := f.fetchLevel(ctx, child.Id, depth+1, state)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				f.logger.Warn("failed to fetch children, continuing with empty subtree",
					"node", child.Id, "depth", depth+1, "err", err)
			}
			child.Children = sub
		}

		if f.shouldKeep(child, state.opts) {
			kept = append(kept, child)
		}
	}

	return kept, nil
}

// shouldKeep decides whether a node survives empty-node filtering.
// The check runs only at the level where the node is returned, so a
// node emptied by filtering deeper levels is still judged by its own
// content.
func (f *Fetcher) shouldKeep(node *core.Node, opts Options) bool {
	if opts.IncludeEmptyNodes {
		return true
	}
	if node.Type.IsStructural() {
		return true
	}
	return !node.IsEmpty()
}

// FetchFlat retrieves the tree and returns it flattened in pre-order,
// the order the blocks read on the page.
func (f *Fetcher) FetchFlat(ctx context.Context, rootId string, opts Options) ([]*core.Node, *Result, error) {
	result, err := f.Fetch(ctx, rootId, opts)
	if err != nil {
		return nil, nil, err
	}
	return Flatten(result.Nodes), result, nil
}

// Flatten returns the tree in pre-order: each node before its children.
func Flatten(nodes []*core.Node) []*core.Node {
	var flat []*core.Node
	var walk func([]*core.Node)
	walk = func(level []*core.Node) {
		for _, node := range level {
			flat = append(flat, node)
			if len(node.Children) > 0 {
				walk(node.Children)
			}
		}
	}
	walk(nodes)
	return flat
}

func countNodes(nodes []*core.Node) int {
	total := 0
	for _, node := range nodes {
		total += 1 + countNodes(node.Children)
	}
	return total
}
