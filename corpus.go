// Copyright 2025 AR-Learn
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


package corpus

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/arlearn/corpus/ai"
	"github.com/arlearn/corpus/ai/openai"
	"github.com/arlearn/corpus/core"
	"github.com/arlearn/corpus/ingestion"
	"github.com/arlearn/corpus/query"
	"github.com/arlearn/corpus/storage"
	"github.com/arlearn/corpus/storage/badger"
)

// Corpus bundles the document store, vector index, knowledge graph, and AI
// services behind one lifecycle: open once, ingest and query, close once.
type Corpus struct {
	backend   *badger.Backend
	documents storage.DocumentRepository
	index     storage.VectorIndex
	graph     storage.GraphStore
	provider  ai.Provider
	pipeline  *ingestion.Pipeline
	engine    *query.Engine
	logger    *slog.Logger
}

// CorpusOption configures a Corpus.
type CorpusOption func(*corpusOptions)

type corpusOptions struct {
	aiConfig     *ai.Config
	provider     ai.Provider
	inMemory     bool
	graphEnabled bool
	pipelineOpts []ingestion.Option
	queryOpts    []query.Option
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(cfg *ai.Config) CorpusOption {
	return func(o *corpusOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithProvider injects a pre-built AI provider, bypassing the OpenAI
// provider construction. Used by tests to install mocks.
func WithProvider(provider ai.Provider) CorpusOption {
	return func(o *corpusOptions) {
		o.provider = provider
	}
}

// WithInMemory opens the backing store in memory, discarding all data on
// close.
func WithInMemory() CorpusOption {
	return func(o *corpusOptions) {
		o.inMemory = true
	}
}

// WithoutGraph disables the knowledge graph. Queries skip graph retrieval
// and procedure lookups return empty results.
func WithoutGraph() CorpusOption {
	return func(o *corpusOptions) {
		o.graphEnabled = false
	}
}

// WithPipelineOptions passes options through to the ingestion pipeline.
func WithPipelineOptions(opts ...ingestion.Option) CorpusOption {
	return func(o *corpusOptions) {
		o.pipelineOpts = append(o.pipelineOpts, opts...)
	}
}

// WithQueryOptions passes options through to the query engine.
func WithQueryOptions(opts ...query.Option) CorpusOption {
	return func(o *corpusOptions) {
		o.queryOpts = append(o.queryOpts, opts...)
	}
}

// Open opens (or creates) a corpus at the given path.
func Open(filePath string, opts ...CorpusOption) (*Corpus, error) {
	options := &corpusOptions{
		aiConfig:     ai.DefaultConfig(),
		graphEnabled: true,
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	documents := badger.NewDocumentRepository(backend)
	index := badger.NewVectorIndex(backend)

	var graph storage.GraphStore
	if options.graphEnabled {
		graph = badger.NewGraphStore(backend)
	} else {
		graph = storage.NewNullGraphStore()
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	pipeline, err := ingestion.NewPipeline(documents, index, provider, options.pipelineOpts...)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	engine, err := query.NewEngine(index, graph, provider, options.queryOpts...)
	if err != nil {
		pipeline.Release()
		provider.Close()
		backend.Close()
		return nil, err
	}

	return &Corpus{
		backend:   backend,
		documents: documents,
		index:     index,
		graph:     graph,
		provider:  provider,
		pipeline:  pipeline,
		engine:    engine,
		logger:    slog.Default(),
	}, nil
}

// Close releases all resources. The corpus must not be used afterwards.
func (c *Corpus) Close() error {
	c.pipeline.Release()

	if err := c.provider.Close(); err != nil {
		c.logger.Error("error closing AI provider", "err", err)
	}
	if err := c.graph.Close(); err != nil {
		c.logger.Error("error closing graph store", "err", err)
		return err
	}
	if err := c.index.Close(); err != nil {
		c.logger.Error("error closing vector index", "err", err)
		return err
	}
	if err := c.documents.Close(); err != nil {
		c.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := c.backend.Close(); err != nil {
		c.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// UploadRequest describes a document to upload.
type UploadRequest struct {
	Title       string
	Description string
	Subject     string
	Tags        []string
	FileName    string
}

// newDocument creates the document record for an upload.
func newDocument(req UploadRequest, size int) (*core.Document, error) {
	fileType, err := core.ParseFileType(filepath.Ext(req.FileName))
	if err != nil {
		return nil, err
	}

	return &core.Document{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		Tags:        req.Tags,
		FileName:    req.FileName,
		FileType:    fileType,
		Size:        int64(size),
		Status:      core.StatusUploading,
	}, nil
}

// UploadDocument registers a document and queues it for asynchronous
// processing. The returned document is in the uploading state; poll
// Document to observe its progress.
func (c *Corpus) UploadDocument(ctx context.Context, req UploadRequest, data []byte) (*core.Document, error) {
	doc, err := newDocument(req, len(data))
	if err != nil {
		return nil, err
	}
	if err := c.documents.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}
	if err := c.pipeline.Submit(doc.ID, data); err != nil {
		return nil, err
	}
	return doc, nil
}

// IngestDocument registers a document and processes it synchronously,
// returning the final record. A processing failure returns the error
// alongside the failed document record.
func (c *Corpus) IngestDocument(ctx context.Context, req UploadRequest, data []byte) (*core.Document, error) {
	doc, err := newDocument(req, len(data))
	if err != nil {
		return nil, err
	}
	if err := c.documents.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	processErr := c.pipeline.Process(ctx, doc.ID, data)

	doc, err = c.documents.GetDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	return doc, processErr
}

// Reprocess runs a fresh processing cycle for a terminal document with new
// file data. Chunk IDs are deterministic, so the document's previous chunks
// and vectors are replaced in place.
func (c *Corpus) Reprocess(ctx context.Context, documentID string, data []byte) (*core.Document, error) {
	if err := c.documents.BeginReprocess(ctx, documentID); err != nil {
		return nil, err
	}

	processErr := c.pipeline.Process(ctx, documentID, data)

	doc, err := c.documents.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return doc, processErr
}

// Document retrieves a document record by ID.
func (c *Corpus) Document(ctx context.Context, id string) (*core.Document, error) {
	return c.documents.GetDocument(ctx, id)
}

// Documents lists all document records.
func (c *Corpus) Documents(ctx context.Context) ([]*core.Document, error) {
	return c.documents.ListDocuments(ctx)
}

// DeleteDocument removes a document, its chunk records, and its vector
// index entries.
func (c *Corpus) DeleteDocument(ctx context.Context, id string) error {
	if err := c.index.Delete(ctx, map[string]string{"document_id": id}); err != nil {
		return err
	}
	return c.documents.DeleteDocument(ctx, id)
}

// Query answers a question with hybrid retrieval.
func (c *Corpus) Query(ctx context.Context, req query.Request) (*query.Response, error) {
	return c.engine.Answer(ctx, req)
}

// ProcedureSteps returns the ordered steps of a named procedure from the
// knowledge graph.
func (c *Corpus) ProcedureSteps(ctx context.Context, procedure string) ([]core.ProcedureStep, error) {
	return c.graph.ProcedureSteps(ctx, procedure)
}

// DocumentRepository exposes the underlying document repository.
func (c *Corpus) DocumentRepository() storage.DocumentRepository {
	return c.documents
}

// VectorIndex exposes the underlying vector index.
func (c *Corpus) VectorIndex() storage.VectorIndex {
	return c.index
}

// GraphStore exposes the underlying knowledge graph store.
func (c *Corpus) GraphStore() storage.GraphStore {
	return c.graph
}

// Stats summarizes the corpus contents.
type Stats struct {
	Documents      int                           `json:"documents"`
	Vectors        int                           `json:"vectors"`
	ByStatus       map[core.DocumentStatus]int   `json:"by_status"`
	GraphConnected bool                          `json:"graph_connected"`
}

// Stats reports document and vector counts.
func (c *Corpus) Stats(ctx context.Context) (*Stats, error) {
	docs, err := c.documents.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	vectors, err := c.index.Count(ctx, nil)
	if err != nil {
		return nil, err
	}

	byStatus := make(map[core.DocumentStatus]int)
	for _, doc := range docs {
		byStatus[doc.Status]++
	}

	return &Stats{
		Documents:      len(docs),
		Vectors:        vectors,
		ByStatus:       byStatus,
		GraphConnected: c.graph.Connected(),
	}, nil
}
