package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for persisted entities.
// It is derived from remote identifiers using content-based hashing so that
// re-migrating the same remote document always lands on the same rows.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// HashContent computes a deterministic hex-encoded BLAKE2b-256 hash of text.
// It is the single signal used to detect unchanged document content and to
// invalidate stale chunks on re-migration.
func HashContent(text string) string {
	h, _ := blake2b.New(32, nil)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// NodeType identifies the kind of remote block a node was built from.
type NodeType string

const (
	NodeTypeParagraph    NodeType = "paragraph"
	NodeTypeHeading1     NodeType = "heading_1"
	NodeTypeHeading2     NodeType = "heading_2"
	NodeTypeHeading3     NodeType = "heading_3"
	NodeTypeBulletedItem NodeType = "bulleted_list_item"
	NodeTypeNumberedItem NodeType = "numbered_list_item"
	NodeTypeToDo         NodeType = "to_do"
	NodeTypeToggle       NodeType = "toggle"
	NodeTypeQuote        NodeType = "quote"
	NodeTypeCallout      NodeType = "callout"
	NodeTypeCode         NodeType = "code"
	NodeTypeDivider      NodeType = "divider"
	NodeTypeImage        NodeType = "image"
	NodeTypeVideo        NodeType = "video"
	NodeTypeFile         NodeType = "file"
	NodeTypeEmbed        NodeType = "embed"
	NodeTypeBookmark     NodeType = "bookmark"
	NodeTypeTable        NodeType = "table"
	NodeTypeTableRow     NodeType = "table_row"
	NodeTypeChildPage    NodeType = "child_page"
	NodeTypeUnknown      NodeType = "unknown"
)

// IsHeading reports whether the node type opens a new document section.
func (t NodeType) IsHeading() bool {
	switch t {
	case NodeTypeHeading1, NodeTypeHeading2, NodeTypeHeading3:
		return true
	}
	return false
}

// IsStructural reports whether the node type is significant regardless of
// its text content. Structural nodes survive the empty-node filter even
// when they carry no extractable text.
func (t NodeType) IsStructural() bool {
	switch t {
	case NodeTypeDivider, NodeTypeImage, NodeTypeVideo, NodeTypeFile,
		NodeTypeEmbed, NodeTypeBookmark:
		return true
	}
	return false
}

// Node is one unit of remote document structure (paragraph, heading, list
// item, etc.), possibly with children. Children are owned exclusively by
// their parent and populated incrementally during the recursive fetch.
//
// Invariant: HasChildren=false implies Children is empty. A depth-limited
// fetch may leave HasChildren=true with empty Children; such a node is a
// recorded truncation, distinguishable from a confirmed-empty one.
type Node struct {
	Id           string
	Type         NodeType
	RawContent   string
	CreatedAt    time.Time
	LastEditedAt time.Time
	HasChildren  bool
	Children     []*Node
}

// IsEmpty reports whether the node carries no retrievable content: blank
// text, no children, and not a structurally significant type.
func (n *Node) IsEmpty() bool {
	if n.Type.IsStructural() {
		return false
	}
	if n.HasChildren || len(n.Children) > 0 {
		return false
	}
	return IsBlank(n.RawContent)
}

// RemoteDocument is the metadata of the root unit being migrated, as
// returned by the remote content API.
type RemoteDocument struct {
	Id           string
	Title        string
	ParentId     string
	URL          string
	CreatedAt    time.Time
	LastEditedAt time.Time
	Properties   map[string]string
	Archived     bool
}

// Section is a run of document text grouped under the nearest preceding
// heading node. Text with no preceding heading falls under an implicit
// default section with an empty heading.
type Section struct {
	Heading string
	Text    string
}

// DocumentContent is the linear representation derived from a node tree
// snapshot. It is immutable once computed for a given tree.
type DocumentContent struct {
	FullText    string
	Sections    []Section
	ContentHash string
	WordCount   int
	CharCount   int
}

// Chunk is a bounded slice of a document's flattened text, the unit of
// embedding and retrieval. Adjacent chunks share overlap characters; the
// final chunk may be shorter than the configured size and is never padded.
type Chunk struct {
	Text          string
	Index         int
	SourceNodeIds []string
	StartOffset   int
	EndOffset     int
	Section       string
}

// StoredDocument is the persisted document row, keyed by remote id.
type StoredDocument struct {
	Id             ID
	RemoteId       string
	Title          string
	URL            string
	ParentRemoteId string
	Properties     map[string]string
	ContentHash    string
	WordCount      int
	CharCount      int
	Archived       bool
	CreatedAt      time.Time
	LastEditedAt   time.Time
	InsertedAt     time.Time
	UpdatedAt      time.Time
}

// StoredNode is the persisted, flattened form of a Node. Nodes are replaced
// wholesale per document (delete existing, insert new) preserving Position
// order.
type StoredNode struct {
	Id             ID
	DocumentId     ID
	RemoteId       string
	ParentRemoteId string
	Type           NodeType
	Text           string
	Position       int
	HasChildren    bool
	Truncated      bool // text was cut at the storage cap, or children exist remotely but were not fetched
	CreatedAt      time.Time
	LastEditedAt   time.Time
}

// EmbeddingRecord pairs a chunk with its embedding vector for persistence.
// Records for a document are replaced, never merged: all prior records
// sharing the document id are deleted before a new batch is inserted.
type EmbeddingRecord struct {
	Id            ID
	DocumentId    ID
	ChunkIndex    int
	Text          string
	Section       string
	SourceNodeIds []string
	StartOffset   int
	EndOffset     int
	ContentHash   string
	Vector        []float32
	InsertedAt    time.Time
}

// MigrationResult is produced exactly once per document migration and is
// never mutated after return. Callers always receive a result, never an
// error, for a single document.
type MigrationResult struct {
	Success        bool
	DocumentId     string // remote id
	Title          string
	NodesProcessed int
	ChunksEmbedded int
	Errors         []string
}

// BatchStrategy is the parallelism policy for a migration run. It is a pure
// function of document count, recomputed per run and never persisted.
type BatchStrategy struct {
	Name      string
	BatchSize int
	RiskLevel string
	Pause     time.Duration
}

// BatchSummary aggregates a whole migration run.
//
// Invariants: Successful+Failed == Total and len(PerDocument) == Total.
type BatchSummary struct {
	Total       int
	Successful  int
	Failed      int
	PerDocument []*MigrationResult
}

// RetrievalHit is one raw chunk hit from the keyword or vector path,
// before per-document grouping.
type RetrievalHit struct {
	DocumentId ID
	ChunkIndex int
	ChunkText  string
	Section    string
	Score      float32
}

// RankedDocument is one source document in the final ranking.
//
// MaxScore is the maximum score among the document's hits; MergedText is
// the assembled retrieval context for the downstream chat feature.
type RankedDocument struct {
	DocumentId ID
	RemoteId   string
	Title      string
	URL        string
	MaxScore   float32
	MergedText string
}
