// Package fetch retrieves a document's block tree from the remote
// content API, level by level.
//
// The walk is depth-bounded: depth 0 is the root's direct children and
// MaxDepth is the deepest level visited. Children are fetched before
// the parent's subtree is assembled, so a node's Children slice is
// complete by the time it appears in the result. A failed request for
// one node's children is logged and leaves that node with an empty
// subtree; it never aborts the rest of the walk.
package fetch
