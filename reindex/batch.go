package reindex

import (
	"context"
	"fmt"
	"time"

	"github.com/arlearn/corpus/ai"
	"github.com/arlearn/corpus/core"
	"github.com/arlearn/corpus/storage"
)

// BatchProcessor re-embeds batches of chunk records and writes the fresh
// vectors back to the index.
type BatchProcessor struct {
	index          storage.VectorIndex
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(index storage.VectorIndex, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		index:          index,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates fresh embeddings for a batch of chunks and upserts them
// into the vector index. Chunk IDs are deterministic, so the upsert replaces
// each chunk's previous entry in place.
func (bp *BatchProcessor) Process(ctx context.Context, chunks []core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
	}

	entries := make([]storage.VectorEntry, len(chunks))
	for i := range chunks {
		entries[i] = storage.VectorEntry{
			ID:       chunks[i].ID,
			Content:  chunks[i].Content,
			Metadata: chunks[i].Metadata.Fields(),
			Vector:   embeddings[i],
		}
	}

	if err := bp.index.Upsert(ctx, entries); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}

	return nil
}
