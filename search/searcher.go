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


package search

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/docshelf/canopy/ai"
	"github.com/docshelf/canopy/core"
	"github.com/docshelf/canopy/storage"
)

const (
	// DefaultLimit caps how many hits each path retrieves and how many
	// documents come back ranked.
	DefaultLimit = 5

	// DefaultThreshold is the minimum cosine similarity for vector hits.
	DefaultThreshold = 0.78

	// relaxedCutoffRatio loosens the threshold for context assembly so
	// supporting chunks around the best hit survive. The 0.8 factor is
	// inherited behavior; do not retune it without checking ranking
	// quality downstream.
	relaxedCutoffRatio = 0.8
)

// Options controls one search call.
type Options struct {
	// UseEmbeddings enables the vector path. The keyword path always
	// runs.
	UseEmbeddings bool

	// Limit caps retrieved hits per path and ranked documents returned.
	// Zero means DefaultLimit.
	Limit int

	// Threshold is the minimum similarity for vector hits.
	// Zero means DefaultThreshold.
	Threshold float32
}

// DefaultOptions returns the options Search uses when given nil.
func DefaultOptions() *Options {
	return &Options{
		UseEmbeddings: true,
		Limit:         DefaultLimit,
		Threshold:     DefaultThreshold,
	}
}

// Searcher ranks stored documents against a query by combining keyword
// matching with vector similarity over embedded chunks.
type Searcher struct {
	repository storage.DocumentRepository
	embedder   ai.Embedder
	logger     *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	repository storage.DocumentRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Searcher, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		repository: repository,
		embedder:   embedder,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Search ranks documents against the query.
// Returns up to opts.Limit documents ordered by MaxScore descending.
func (s *Searcher) Search(ctx context.Context, query string, opts *Options) ([]*core.RankedDocument, error) {
	return s.SearchWithMonitor(ctx, query, opts, nil)
}

// docGroup accumulates everything known about one candidate document
// while hits are merged.
type docGroup struct {
	hits       []*core.RetrievalHit
	titleScore float32
}

// SearchWithMonitor ranks documents against the query with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, opts *Options, monitor SearchMonitor) ([]*core.RankedDocument, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if core.IsBlank(query) {
		return nil, ErrEmptyQuery
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	keywords := ExtractKeywords(query)
	monitor.Start(query, keywords)

	groups := make(map[core.ID]*docGroup)
	group := func(id core.ID) *docGroup {
		g, ok := groups[id]
		if !ok {
			g = &docGroup{}
			groups[id] = g
		}
		return g
	}

	// Keyword path: chunk text plus document titles and properties.
	if len(keywords) > 0 {
		chunkHits, err := s.repository.KeywordSearchChunks(ctx, keywords, limit)
		if err != nil {
			s.logger.Error("keyword search failed", "err", err)
			return nil, err
		}
		for _, hit := range chunkHits {
			g := group(hit.DocumentId)
			g.hits = mergeHit(g.hits, hit)
		}
		monitor.AfterKeywordSearch(chunkHits)

		if err := s.matchDocumentMetadata(ctx, keywords, group); err != nil {
			return nil, err
		}
	}

	// Vector path.
	if opts.UseEmbeddings {
		vector, err := s.embedder.EmbedText(ctx, query)
		if err != nil {
			s.logger.Error("error generating embedding for query", "query", query, "err", err)
			return nil, err
		}

		vectorHits, err := s.repository.FindSimilar(ctx, core.NormalizeVector(vector), threshold, limit)
		if err != nil {
			s.logger.Error("error querying for similar chunks", "err", err)
			return nil, err
		}
		for _, hit := range vectorHits {
			g := group(hit.DocumentId)
			g.hits = mergeHit(g.hits, hit)
		}
		monitor.AfterVectorSearch(vectorHits)
	}

	ranked, err := s.rank(ctx, groups, threshold, monitor)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MaxScore > ranked[j].MaxScore
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	monitor.Finish(ranked)
	return ranked, nil
}

// matchDocumentMetadata scores every stored document's title and
// properties against the keywords and records matches as title scores.
func (s *Searcher) matchDocumentMetadata(ctx context.Context, keywords []string, group func(core.ID) *docGroup) error {
	docs, err := s.repository.ListDocuments(ctx)
	if err != nil {
		s.logger.Error("listing documents for keyword match failed", "err", err)
		return err
	}

	for _, doc := range docs {
		var sb strings.Builder
		sb.WriteString(doc.Title)
		for key, value := range doc.Properties {
			sb.WriteString(" ")
			sb.WriteString(key)
			sb.WriteString(" ")
			sb.WriteString(value)
		}

		if score := matchFraction(sb.String(), keywords); score > 0 {
			g := group(doc.Id)
			if score > g.titleScore {
				g.titleScore = score
			}
		}
	}
	return nil
}

// rank turns merged hit groups into ranked documents. Documents whose
// stored record has vanished or been archived since indexing are
// silently skipped.
func (s *Searcher) rank(ctx context.Context, groups map[core.ID]*docGroup, threshold float32, monitor SearchMonitor) ([]*core.RankedDocument, error) {
	ranked := make([]*core.RankedDocument, 0, len(groups))

	for id, g := range groups {
		doc, err := s.repository.GetDocument(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				monitor.DocumentExcluded(id, "deleted")
				continue
			}
			return nil, err
		}
		if doc.Archived {
			monitor.DocumentExcluded(id, "archived")
			continue
		}

		maxScore := g.titleScore
		for _, hit := range g.hits {
			if hit.Score > maxScore {
				maxScore = hit.Score
			}
		}

		merged := s.buildContext(ctx, id, g, threshold)
		if merged == "" {
			// Metadata-only match on a document with no embedded
			// chunks: nothing to show, so nothing to return.
			monitor.DocumentExcluded(id, "no content")
			continue
		}

		ranked = append(ranked, &core.RankedDocument{
			DocumentId: id,
			RemoteId:   doc.RemoteId,
			Title:      doc.Title,
			URL:        doc.URL,
			MaxScore:   maxScore,
			MergedText: merged,
		})
	}
	return ranked, nil
}

// buildContext assembles a document's merged text from its hits. Chunks
// at or above the relaxed cutoff are joined in chunk order, each
// prefixed with its section heading when present. When no chunk clears
// the cutoff, the single best chunk is used so a returned document
// never has empty content.
func (s *Searcher) buildContext(ctx context.Context, id core.ID, g *docGroup, threshold float32) string {
	hits := g.hits
	if len(hits) == 0 {
		// Title or property match only: show the document's leading
		// chunk as context.
		records, err := s.repository.GetEmbeddings(ctx, id)
		if err != nil || len(records) == 0 {
			return ""
		}
		return formatChunk(records[0].Section, records[0].Text)
	}

	cutoff := threshold * relaxedCutoffRatio
	included := make([]*core.RetrievalHit, 0, len(hits))
	for _, hit := range hits {
		if hit.Score >= cutoff {
			included = append(included, hit)
		}
	}

	if len(included) == 0 {
		best := hits[0]
		for _, hit := range hits[1:] {
			if hit.Score > best.Score {
				best = hit
			}
		}
		return formatChunk(best.Section, best.ChunkText)
	}

	sort.Slice(included, func(i, j int) bool {
		return included[i].ChunkIndex < included[j].ChunkIndex
	})

	parts := make([]string, len(included))
	for i, hit := range included {
		parts[i] = formatChunk(hit.Section, hit.ChunkText)
	}
	return strings.Join(parts, "\n\n")
}

// formatChunk prefixes chunk text with its section heading when one
// exists.
func formatChunk(section, text string) string {
	if section == "" {
		return text
	}
	return section + "\n" + text
}

// mergeHit adds a hit to the list, deduplicating on chunk index and
// keeping the higher score when both paths found the same chunk.
func mergeHit(hits []*core.RetrievalHit, hit *core.RetrievalHit) []*core.RetrievalHit {
	for i, existing := range hits {
		if existing.ChunkIndex == hit.ChunkIndex {
			if hit.Score > existing.Score {
				hits[i] = hit
			}
			return hits
		}
	}
	return append(hits, hit)
}
