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


// Package search ranks migrated documents against free-text queries.
//
// Two retrieval paths feed one ranking. The keyword path matches
// stop-word-filtered query tokens against chunk text, document titles
// and properties. The vector path embeds the query and retrieves the
// nearest chunks by cosine similarity above a threshold. Hits from both
// paths are merged, grouped by document, and documents are ordered by
// their best hit's score. Each returned document carries merged context
// text assembled from its qualifying chunks, so callers can feed it
// straight into a generation prompt.
package search
