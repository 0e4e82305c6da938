package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arlearn/corpus/ai"
	"github.com/arlearn/corpus/core"
)

// defaultBatchSize bounds the number of texts sent to the embedding
// provider in a single call.
const defaultBatchSize = 128

// embedBatches generates embeddings for texts in sequential batches of at
// most batchSize. The returned vectors align 1:1 with texts. Any batch
// failure aborts the whole run; partial results are never returned. A
// positive callTimeout bounds each provider call individually.
func embedBatches(ctx context.Context, embedder ai.Embedder, texts []string, batchSize int, callTimeout time.Duration, logger *slog.Logger) ([][]float32, error) {
	if batchSize < 1 {
		batchSize = defaultBatchSize
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		logger.Debug("embedding batch", "from", start, "to", end, "total", len(texts))
		batchCtx, cancel := ctx, context.CancelFunc(func() {})
		if callTimeout > 0 {
			batchCtx, cancel = context.WithTimeout(ctx, callTimeout)
		}
		batch, err := embedder.EmbedTexts(batchCtx, texts[start:end])
		cancel()
		if err != nil {
			return nil, fmt.Errorf("%w: batch [%d:%d]: %v", core.ErrEmbedding, start, end, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("%w: batch [%d:%d]: expected %d vectors, received %d",
				core.ErrEmbedding, start, end, end-start, len(batch))
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}
