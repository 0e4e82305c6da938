package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/arlearn/corpus/ai"
	"github.com/arlearn/corpus/chunk"
	"github.com/arlearn/corpus/core"
	"github.com/arlearn/corpus/extract"
	"github.com/arlearn/corpus/storage"
)

// Pipeline orchestrates the processing of uploaded documents: extraction,
// chunking, batched embedding, and vector index replacement, with document
// status tracked through the repository's state machine.
type Pipeline struct {
	documents storage.DocumentRepository
	index     storage.VectorIndex
	extractor *extract.Extractor
	splitter  *chunk.Splitter
	embedder  ai.Embedder
	pool        *ants.Pool
	batchSize   int
	callTimeout time.Duration
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for asynchronous processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets the maximum number of chunks embedded per provider
// call. Default is 128.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = defaultBatchSize
		}
		p.batchSize = size
		return nil
	}
}

// WithCallTimeout bounds each embedding provider call with its own
// deadline. Zero, the default, leaves calls bounded only by the caller's
// context.
func WithCallTimeout(d time.Duration) Option {
	return func(p *Pipeline) error {
		if d > 0 {
			p.callTimeout = d
		}
		return nil
	}
}

// WithSplitter sets a custom chunk splitter.
func WithSplitter(splitter *chunk.Splitter) Option {
	return func(p *Pipeline) error {
		if splitter != nil {
			p.splitter = splitter
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new document processing pipeline.
func NewPipeline(
	documents storage.DocumentRepository,
	index storage.VectorIndex,
	provider ai.Provider,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if index == nil {
		return nil, ErrVectorIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		documents: documents,
		index:     index,
		embedder:  provider.Embedder(),
		pool:      pool,
		batchSize: defaultBatchSize,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	p.extractor = extract.NewExtractor(extract.WithLogger(p.logger))
	if p.splitter == nil {
		p.splitter = chunk.NewSplitter()
	}

	return p, nil
}

// Process runs the full processing cycle for one uploaded document,
// synchronously. The document must be in the uploading state; Process moves
// it to processing and then to completed or failed. On failure the document
// is marked failed and the error is returned.
func (p *Pipeline) Process(ctx context.Context, documentID string, data []byte) error {
	doc, err := p.documents.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	if err := p.documents.UpdateDocumentStatus(ctx, documentID, core.StatusProcessing, 0); err != nil {
		return err
	}

	chunksCount, err := p.process(ctx, doc, data)
	if err != nil {
		p.logger.Error("document processing failed", "document_id", documentID, "err", err)
		if failErr := p.documents.UpdateDocumentStatus(ctx, documentID, core.StatusFailed, 0); failErr != nil {
			p.logger.Error("error marking document failed", "document_id", documentID, "err", failErr)
		}
		return err
	}

	if err := p.documents.UpdateDocumentStatus(ctx, documentID, core.StatusCompleted, chunksCount); err != nil {
		return err
	}

	p.logger.Info("document processed", "document_id", documentID, "chunks", chunksCount)
	return nil
}

// process runs extraction, chunking, embedding, and index replacement, and
// returns the number of chunks produced.
func (p *Pipeline) process(ctx context.Context, doc *core.Document, data []byte) (int, error) {
	pages, err := p.extractor.Extract(data, doc.FileType)
	if err != nil {
		return 0, err
	}

	chunks, err := p.splitter.SplitDocument(doc, pages)
	if err != nil {
		return 0, err
	}

	// Replace the record set wholesale so a reprocessed document that
	// shrank keeps exactly the new records.
	if err := p.documents.ReplaceChunkRecords(ctx, doc.ID, chunks); err != nil {
		return 0, err
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	vectors, err := embedBatches(ctx, p.embedder, texts, p.batchSize, p.callTimeout, p.logger)
	if err != nil {
		return 0, err
	}

	// Replace the document's index entries wholesale so a reprocessed
	// document that shrank leaves no stale vectors behind.
	if err := p.index.Delete(ctx, map[string]string{"document_id": doc.ID}); err != nil {
		return 0, fmt.Errorf("%w: clearing previous vectors: %v", core.ErrStore, err)
	}

	entries := make([]storage.VectorEntry, len(chunks))
	for i := range chunks {
		entries[i] = storage.VectorEntry{
			ID:       chunks[i].ID,
			Content:  chunks[i].Content,
			Metadata: chunks[i].Metadata.Fields(),
			Vector:   vectors[i],
		}
	}
	if err := p.index.Upsert(ctx, entries); err != nil {
		return 0, fmt.Errorf("%w: upserting vectors: %v", core.ErrStore, err)
	}

	return len(chunks), nil
}

// Submit queues a document for asynchronous processing on the worker pool.
// Errors during processing are recorded on the document and logged; they do
// not surface to the caller.
func (p *Pipeline) Submit(documentID string, data []byte) error {
	return p.pool.Submit(func() {
		if err := p.Process(context.Background(), documentID, data); err != nil {
			p.logger.Error("error processing submitted document", "document_id", documentID, "err", err)
		}
	})
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
