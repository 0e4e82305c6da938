package storage

import (
	"context"

	"github.com/arlearn/corpus/core"
)

// DocumentRepository is the primary record store for documents and their
// chunk records. Implementations must be thread-safe and support concurrent
// access; each document's status is only ever written by the single
// ingestion call that owns it.
type DocumentRepository interface {
	// CreateDocument persists a new document record. The document must be in
	// the uploading state.
	CreateDocument(ctx context.Context, doc *core.Document) error

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id string) (*core.Document, error)

	// ListDocuments returns all document records, ordered by ID.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// UpdateDocumentStatus transitions a document's status, enforcing the
	// state machine: returns core.ErrInvalidTransition for any move the
	// current status does not permit, including any transition out of a
	// terminal state. Entering completed records chunksCount and stamps
	// ProcessedAt; all other transitions ignore chunksCount.
	UpdateDocumentStatus(ctx context.Context, id string, status core.DocumentStatus, chunksCount int) error

	// BeginReprocess starts a fresh processing cycle: it moves a terminal
	// document back to uploading and clears ChunksCount and ProcessedAt.
	// Returns core.ErrInvalidTransition if the document is not in a terminal
	// state.
	BeginReprocess(ctx context.Context, id string) error

	// CreateChunkRecords persists chunk records, overwriting any existing
	// record with the same chunk ID. Chunk IDs are deterministic, so
	// reprocessing writes to the same storage slots.
	CreateChunkRecords(ctx context.Context, chunks []core.Chunk) error

	// ReplaceChunkRecords replaces a document's entire chunk record set in
	// one transaction. Records from a previous, larger set are removed, so
	// the stored index set stays exactly 0..len(chunks)-1 even when a
	// reprocessed document shrank.
	ReplaceChunkRecords(ctx context.Context, documentID string, chunks []core.Chunk) error

	// ChunksByDocument returns a document's chunk records ordered by index.
	ChunksByDocument(ctx context.Context, documentID string) ([]core.Chunk, error)

	// CountChunks returns the number of chunk records held for a document.
	CountChunks(ctx context.Context, documentID string) (int, error)

	// DeleteDocument removes a document and all of its chunk records.
	// Returns ErrNotFound if the document doesn't exist. Cascading deletion
	// of the document's vector entries is the caller's responsibility.
	DeleteDocument(ctx context.Context, id string) error

	// Close releases resources held by the repository.
	Close() error
}

// VectorEntry is one upsert payload for the vector index.
type VectorEntry struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
	Vector   []float32         `json:"vector"`
}

// VectorIndex stores chunk vectors and supports filtered nearest-neighbor
// search. Upserts have overwrite-on-conflict semantics keyed by entry ID.
type VectorIndex interface {
	// Upsert writes entries, overwriting any existing entry with the same ID.
	Upsert(ctx context.Context, entries []VectorEntry) error

	// Search returns up to k hits ordered by ascending distance. filter is
	// an equality predicate over metadata fields; a nil or empty filter
	// means an unrestricted search.
	Search(ctx context.Context, vector []float32, k int, filter map[string]string) ([]core.VectorHit, error)

	// Delete removes all entries whose metadata matches the filter.
	Delete(ctx context.Context, filter map[string]string) error

	// Count returns the number of entries matching the filter (all entries
	// when the filter is nil or empty).
	Count(ctx context.Context, filter map[string]string) (int, error)

	// Close releases resources held by the index.
	Close() error
}

// GraphStore provides read access to structured facts and procedure steps.
// The query path treats it as read-only; the seeding methods exist for
// administrative tooling.
type GraphStore interface {
	// Connected reports whether the store has an active connection. A
	// disconnected store returns empty results instead of failing, and the
	// query engine uses this marker to skip graph retrieval.
	Connected() bool

	// QueryFacts returns up to limit facts whose node, relationship, or
	// connected-node representation contains text (case-insensitive
	// substring match, not semantic search).
	QueryFacts(ctx context.Context, text string, limit int) ([]core.GraphFact, error)

	// ProcedureSteps returns the ordered steps of a named procedure.
	ProcedureSteps(ctx context.Context, procedure string) ([]core.ProcedureStep, error)

	// AddFact stores a fact. Facts are content-addressed, so storing the
	// same triple twice is a no-op.
	AddFact(ctx context.Context, fact core.GraphFact) error

	// AddProcedureStep stores one step of a procedure, overwriting any
	// existing step with the same procedure and order.
	AddProcedureStep(ctx context.Context, step core.ProcedureStep) error

	// Close releases resources held by the store.
	Close() error
}
