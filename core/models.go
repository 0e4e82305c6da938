package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FileType identifies the declared format of an uploaded document.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeDOCX FileType = "docx"
	FileTypeTXT  FileType = "txt"
)

// ParseFileType parses a file type from its string form (case-insensitive,
// leading dot tolerated so file extensions can be passed directly).
func ParseFileType(s string) (FileType, error) {
	switch FileType(strings.ToLower(strings.TrimPrefix(s, "."))) {
	case FileTypePDF:
		return FileTypePDF, nil
	case FileTypeDOCX:
		return FileTypeDOCX, nil
	case FileTypeTXT:
		return FileTypeTXT, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, s)
	}
}

// DocumentStatus is the processing state of a document.
// Transitions move in one direction only:
//
//	uploading -> processing -> completed
//	                        -> failed
//
// completed and failed are terminal. Reprocessing a document requires an
// explicit fresh cycle (see storage.DocumentRepository.BeginReprocess),
// which re-enters uploading; a plain status update never leaves a terminal
// state.
type DocumentStatus string

const (
	StatusUploading  DocumentStatus = "uploading"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// Terminal reports whether the status permits no further transitions.
func (s DocumentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether a direct transition from s to next is legal.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	switch s {
	case StatusUploading:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// Document is the unit of ingestion. It is created in the uploading state
// before processing starts and is mutated only through the document
// repository, which enforces the status state machine.
type Document struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Subject     string     `json:"subject,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	FileName    string     `json:"file_name"`
	FileType    FileType   `json:"file_type"`
	Size        int64      `json:"size"`
	Status      DocumentStatus `json:"status"`
	ChunksCount int        `json:"chunks_count"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"` // set only on completed
}

// ChunkMetadata carries the provenance of a chunk. It travels with the chunk
// into the vector index, where its fields serve as equality-filter keys.
type ChunkMetadata struct {
	DocumentID string    `json:"document_id"`
	PageNumber int       `json:"page_number"`
	ChunkSize  int       `json:"chunk_size"`
	FileName   string    `json:"file_name"`
	Subject    string    `json:"subject,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Fields returns the metadata as flat string fields for vector-index
// filtering and storage.
func (m ChunkMetadata) Fields() map[string]string {
	fields := map[string]string{
		"document_id": m.DocumentID,
		"page_number": strconv.Itoa(m.PageNumber),
		"chunk_size":  strconv.Itoa(m.ChunkSize),
		"file_name":   m.FileName,
	}
	if m.Subject != "" {
		fields["subject"] = m.Subject
	}
	return fields
}

// Chunk is a bounded span of a document's text, the unit of embedding and
// retrieval. Chunk IDs are deterministic so that reprocessing a document
// overwrites its previous chunks in place rather than appending new ones.
type Chunk struct {
	ID         string        `json:"chunk_id"`
	DocumentID string        `json:"document_id"`
	Content    string        `json:"content"`
	Index      int           `json:"chunk_index"` // 0-based, contiguous per document
	Metadata   ChunkMetadata `json:"metadata"`
}

// ChunkID derives the deterministic identifier for a chunk from its document
// and 0-based index.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}

// RetrievalResult is the sum type of the two retrieval sources. Consumers
// switch on the concrete type (VectorHit or GraphFact); the two shapes are
// never collapsed into one record.
type RetrievalResult interface {
	retrievalResult()
}

// VectorHit is a similarity-search match from the vector index.
// Distance is in [0, ~2]; lower means more similar.
type VectorHit struct {
	ChunkID  string
	Content  string
	Metadata map[string]string
	Distance float64
}

// GraphFact is a structured (node, relationship, connected node) triple from
// the knowledge graph. Any element may be empty.
type GraphFact struct {
	Node          string `json:"node" yaml:"node"`
	Relationship  string `json:"relationship" yaml:"relationship"`
	ConnectedNode string `json:"connected_node,omitempty" yaml:"connected_node,omitempty"`
}

func (VectorHit) retrievalResult() {}
func (GraphFact) retrievalResult() {}

// ProcedureStep is one ordered step of a named procedure in the knowledge
// graph.
type ProcedureStep struct {
	Procedure   string `json:"procedure" yaml:"procedure"`
	Order       int    `json:"order" yaml:"order"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}
