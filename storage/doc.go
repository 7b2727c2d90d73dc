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


// Package storage provides the storage abstraction layer for canopy.
//
// This package defines the document store adapter contract that decouples
// the migration pipeline and the retrieval ranker from any particular
// storage engine. It allows different backends (BadgerDB, in-memory, etc.)
// to be used interchangeably.
//
// # Constructor Return Type Pattern
//
// This package follows a strict "return interface" pattern for all public
// constructors to enforce abstraction and enable multiple storage backend
// implementations:
//
//	repo, err := badger.NewDocumentRepository(backend)  // returns storage.DocumentRepository
//
// Internal package constructors may return concrete types since they're
// only used within the implementation package.
//
// # Write Scoping
//
// Every mutating operation is scoped to one document id. Document, node,
// and embedding rows are keyed by their owning document, so concurrent
// migrations of distinct documents never contend on the same rows and
// require no external locking.
//
// # Replace Semantics
//
// Nodes and embedding records are replaced wholesale per document:
// delete existing rows, then insert the new batch. A crash between the
// two steps leaves a document with missing rows, which re-migration
// repairs; it never leaves duplicated rows.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
