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


package core

import (
	"fmt"
	"strings"
)

// ValidateStoredDocument validates a StoredDocument according to domain rules.
//
// Validation rules:
//   - RemoteId must not be empty
//
// NOT validated (populated during migration):
//   - ContentHash, WordCount, CharCount (empty until extraction runs)
//   - Id (derived from RemoteId by the repository)
func ValidateStoredDocument(doc *StoredDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if doc.RemoteId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyRemoteId)
	}
	return nil
}

// ValidateStoredNode validates a StoredNode according to domain rules.
//
// Validation rules:
//   - RemoteId must not be empty
//   - DocumentId must not be zero
//
// Text may be empty: structural nodes (dividers, media, embeds) carry none.
func ValidateStoredNode(node *StoredNode) error {
	if node == nil {
		return fmt.Errorf("%w: node is nil", ErrInvalidNode)
	}
	if node.RemoteId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidNode, ErrEmptyRemoteId)
	}
	if node.DocumentId == 0 {
		return fmt.Errorf("%w: document id is zero", ErrInvalidNode)
	}
	return nil
}

// ValidateEmbeddingRecord validates an EmbeddingRecord according to domain rules.
//
// Validation rules:
//   - DocumentId must not be zero
//   - ChunkIndex must not be negative
//   - Vector must not be empty
func ValidateEmbeddingRecord(record *EmbeddingRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidEmbeddingRecord)
	}
	if record.DocumentId == 0 {
		return fmt.Errorf("%w: document id is zero", ErrInvalidEmbeddingRecord)
	}
	if record.ChunkIndex < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEmbeddingRecord, ErrNegativeChunkIndex)
	}
	if len(record.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEmbeddingRecord, ErrEmptyVector)
	}
	return nil
}

// ValidateChunkParams validates chunking parameters.
//
// Both size and overlap must be positive-sane: size > 0 and
// 0 <= overlap < size, so the sliding window always advances.
func ValidateChunkParams(size, overlap int) error {
	if size <= 0 {
		return ErrInvalidChunkSize
	}
	if overlap < 0 || overlap >= size {
		return ErrInvalidChunkOverlap
	}
	return nil
}

// IsBlank reports whether text contains no non-whitespace characters.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
