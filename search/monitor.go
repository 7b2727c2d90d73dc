package search

import "github.com/docshelf/canopy/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string, keywords []string)
	AfterKeywordSearch(hits []*core.RetrievalHit)
	AfterVectorSearch(hits []*core.RetrievalHit)
	DocumentExcluded(documentId core.ID, reason string)
	Finish(ranked []*core.RankedDocument)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ []string)               {}
func (n *noopMonitor) AfterKeywordSearch(_ []*core.RetrievalHit) {}
func (n *noopMonitor) AfterVectorSearch(_ []*core.RetrievalHit)  {}
func (n *noopMonitor) DocumentExcluded(_ core.ID, _ string)      {}
func (n *noopMonitor) Finish(_ []*core.RankedDocument)           {}
