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


package storage

import (
	"github.com/docshelf/canopy/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalDocument serializes a StoredDocument to bytes.
func MarshalDocument(doc *core.StoredDocument) []byte {
	buf := make([]byte, core.StoredDocumentMUS.Size(*doc))
	core.StoredDocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a StoredDocument from bytes.
func UnmarshalDocument(data []byte) (*core.StoredDocument, error) {
	doc, _, err := core.StoredDocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// MarshalNode serializes a StoredNode to bytes.
func MarshalNode(node *core.StoredNode) []byte {
	buf := make([]byte, core.StoredNodeMUS.Size(*node))
	core.StoredNodeMUS.Marshal(*node, buf)
	return buf
}

// UnmarshalNode deserializes a StoredNode from bytes.
func UnmarshalNode(data []byte) (*core.StoredNode, error) {
	node, _, err := core.StoredNodeMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// MarshalEmbeddingRecord serializes an EmbeddingRecord to bytes.
func MarshalEmbeddingRecord(record *core.EmbeddingRecord) []byte {
	buf := make([]byte, core.EmbeddingRecordMUS.Size(*record))
	core.EmbeddingRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalEmbeddingRecord deserializes an EmbeddingRecord from bytes.
func UnmarshalEmbeddingRecord(data []byte) (*core.EmbeddingRecord, error) {
	record, _, err := core.EmbeddingRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
