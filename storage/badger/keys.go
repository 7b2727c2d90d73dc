package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/docshelf/canopy/core"
)

// Key prefixes for different data types
const (
	documentPrefix  = "docrec"
	nodePrefix      = "nodrec"
	embeddingPrefix = "embrec"
)

// makeDocumentKey generates a key for a document record by internal ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeNodeKey generates a composite key for a node record.
// Format: prefix:documentID:position
func makeNodeKey(documentId core.ID, position int) []byte {
	prefix := nodePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for documentID + 8 bytes for position
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort matches position order
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentId))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(position))
	return buf
}

// makePartialNodeKey generates a prefix covering all of a document's nodes.
func makePartialNodeKey(documentId core.ID) []byte {
	prefix := nodePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentId))
	return buf
}

// makeEmbeddingKey generates a composite key for an embedding record.
// Format: prefix:documentID:chunkIndex
func makeEmbeddingKey(documentId core.ID, chunkIndex int) []byte {
	prefix := embeddingPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for documentID + 8 bytes for chunk index
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort matches chunk order
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentId))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkIndex))
	return buf
}

// makePartialEmbeddingKey generates a prefix covering all of a document's
// embedding records.
func makePartialEmbeddingKey(documentId core.ID) []byte {
	prefix := embeddingPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentId))
	return buf
}
