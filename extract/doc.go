// Package extract turns a fetched block tree into linear document
// content and splits that content into overlapping chunks sized for
// embedding.
//
// Extraction is deterministic: the same tree always renders to the same
// full text, the same sections and the same content hash. Chunking is a
// character sliding window with configurable size and overlap; every
// chunk keeps offsets into the full text plus the ids of the nodes it
// was cut from, so a retrieval hit can be traced back to its source
// blocks.
package extract
