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


package extract

import (
	"strings"

	"github.com/docshelf/canopy/core"
)

const (
	// DefaultChunkSize is the window width in characters.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is how many characters consecutive chunks
	// share.
	DefaultChunkOverlap = 200
)

// ChunkNodes renders the tree and splits the full text into overlapping
// windows of size characters, stepping by size-overlap. The final chunk
// may be shorter. Each chunk records the ids of the nodes whose text
// overlaps its [StartOffset, EndOffset) range and the heading of the
// section its start falls in.
//
// A tree that renders to no text produces zero chunks; that is a valid
// outcome, not an error.
func ChunkNodes(nodes []*core.Node, size, overlap int) ([]*core.Chunk, error) {
	if err := core.ValidateChunkParams(size, overlap); err != nil {
		return nil, err
	}

	ex := run(nodes)
	fullText := ex.builder.String()
	if core.IsBlank(fullText) {
		return nil, nil
	}

	step := size - overlap
	var chunks []*core.Chunk
	for start := 0; start < len(fullText); start += step {
		end := start + size
		if end > len(fullText) {
			end = len(fullText)
		}

		text := fullText[start:end]
		if core.IsBlank(text) {
			break
		}

		chunks = append(chunks, &core.Chunk{
			Text:          text,
			Index:         len(chunks),
			SourceNodeIds: ex.nodesInRange(start, end),
			StartOffset:   start,
			EndOffset:     end,
			Section:       ex.sectionAt(start),
		})
	}

	return chunks, nil
}

// nodesInRange returns the ids of nodes whose rendered text overlaps
// [start, end), in document order.
func (ex *extraction) nodesInRange(start, end int) []string {
	var ids []string
	for _, s := range ex.spans {
		if s.start < end && s.end > start {
			ids = append(ids, s.nodeId)
		}
	}
	return ids
}

// sectionAt returns the heading of the section whose text contains the
// given offset. Offsets before any span fall into the implicit section.
func (ex *extraction) sectionAt(offset int) string {
	heading := ""
	for _, s := range ex.spans {
		if s.start > offset {
			break
		}
		heading = ex.sections[s.section].Heading
	}
	return strings.TrimSpace(heading)
}
