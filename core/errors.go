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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a StoredDocument failed validation.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrInvalidNode indicates a StoredNode failed validation.
	ErrInvalidNode = errors.New("invalid node")
	// ErrInvalidEmbeddingRecord indicates an EmbeddingRecord failed validation.
	ErrInvalidEmbeddingRecord = errors.New("invalid embedding record")
	// ErrEmptyRemoteId indicates the RemoteId field is empty.
	ErrEmptyRemoteId = errors.New("remote id cannot be empty")
	// ErrEmptyVector indicates an embedding record has no vector.
	ErrEmptyVector = errors.New("embedding vector cannot be empty")
	// ErrNegativeChunkIndex indicates a chunk index below zero.
	ErrNegativeChunkIndex = errors.New("chunk index cannot be negative")
	// ErrInvalidChunkSize indicates a non-positive chunk size.
	ErrInvalidChunkSize = errors.New("chunk size must be greater than 0")
	// ErrInvalidChunkOverlap indicates an overlap that is negative or not
	// smaller than the chunk size.
	ErrInvalidChunkOverlap = errors.New("chunk overlap must be non-negative and smaller than chunk size")
)
