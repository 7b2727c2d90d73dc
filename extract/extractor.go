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
	"unicode/utf8"

	"github.com/docshelf/canopy/core"
)

// span records where one node's text landed in the full text.
type span struct {
	nodeId  string
	start   int
	end     int
	section int // index into sections
}

// extraction accumulates state while walking the tree.
type extraction struct {
	builder  strings.Builder
	spans    []span
	sections []core.Section
	current  int // index of the section being filled
}

// Extract renders a block tree into linear document content. Nodes are
// visited in tree order, each node before its children. Headings open a
// new section; text before the first heading falls into an implicit
// untitled section. The content hash is recomputed from the rendered
// text on every call, so identical trees always produce identical
// hashes.
func Extract(nodes []*core.Node) *core.DocumentContent {
	ex := run(nodes)
	fullText := ex.builder.String()

	// Fill section texts from the recorded spans.
	sectionTexts := make([]strings.Builder, len(ex.sections))
	for _, s := range ex.spans {
		sb := &sectionTexts[s.section]
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fullText[s.start:s.end])
	}

	var sections []core.Section
	for i, section := range ex.sections {
		text := sectionTexts[i].String()
		if i == 0 && text == "" {
			// Drop the implicit section when nothing preceded the
			// first heading.
			continue
		}
		section.Text = text
		sections = append(sections, section)
	}

	return &core.DocumentContent{
		FullText:    fullText,
		Sections:    sections,
		ContentHash: core.HashContent(fullText),
		WordCount:   len(strings.Fields(fullText)),
		CharCount:   utf8.RuneCountInString(fullText),
	}
}

// run performs the tree walk shared by Extract and ChunkNodes.
func run(nodes []*core.Node) *extraction {
	ex := &extraction{
		sections: []core.Section{{Heading: ""}},
	}
	ex.walk(nodes)
	return ex
}

func (ex *extraction) walk(nodes []*core.Node) {
	for _, node := range nodes {
		ex.visit(node)
		if len(node.Children) > 0 {
			ex.walk(node.Children)
		}
	}
}

func (ex *extraction) visit(node *core.Node) {
	if node.Type.IsHeading() {
		ex.sections = append(ex.sections, core.Section{
			Heading: strings.TrimSpace(node.RawContent),
		})
		ex.current = len(ex.sections) - 1
	}

	text := renderNode(node)
	if core.IsBlank(text) {
		return
	}

	if ex.builder.Len() > 0 {
		ex.builder.WriteString("\n")
	}
	start := ex.builder.Len()
	ex.builder.WriteString(text)

	ex.spans = append(ex.spans, span{
		nodeId:  node.Id,
		start:   start,
		end:     ex.builder.Len(),
		section: ex.current,
	})
}

// renderNode converts one node to its textual form. Structural nodes
// without text contribute nothing.
func renderNode(node *core.Node) string {
	text := strings.TrimSpace(node.RawContent)
	if text == "" {
		return ""
	}

	switch node.Type {
	case core.NodeTypeBulletedItem:
		return "- " + text
	case core.NodeTypeNumberedItem:
		return "- " + text
	case core.NodeTypeToDo:
		return "[ ] " + text
	case core.NodeTypeQuote:
		return "> " + text
	case core.NodeTypeDivider:
		return ""
	default:
		return text
	}
}
