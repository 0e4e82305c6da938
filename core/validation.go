package core

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors.
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")
)

// ValidateDocument checks that a document is well-formed for storage.
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: nil", ErrInvalidDocument)
	}
	if doc.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidDocument)
	}
	if strings.TrimSpace(doc.Title) == "" {
		return fmt.Errorf("%w: empty title", ErrInvalidDocument)
	}
	if _, err := ParseFileType(string(doc.FileType)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	switch doc.Status {
	case StatusUploading, StatusProcessing, StatusCompleted, StatusFailed:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidDocument, doc.Status)
	}
	return nil
}

// ValidateChunk checks chunk identity and content invariants: the ID must be
// the deterministic derivation of (document id, index), the index must be
// non-negative, and the content must be non-empty.
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: nil", ErrInvalidChunk)
	}
	if chunk.DocumentID == "" {
		return fmt.Errorf("%w: empty document id", ErrInvalidChunk)
	}
	if chunk.Index < 0 {
		return fmt.Errorf("%w: negative index %d", ErrInvalidChunk, chunk.Index)
	}
	if want := ChunkID(chunk.DocumentID, chunk.Index); chunk.ID != want {
		return fmt.Errorf("%w: id %q does not match derived id %q", ErrInvalidChunk, chunk.ID, want)
	}
	if strings.TrimSpace(chunk.Content) == "" {
		return fmt.Errorf("%w: empty content", ErrInvalidChunk)
	}
	return nil
}
