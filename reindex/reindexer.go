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


package reindex

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/arlearn/corpus/ai"
	"github.com/arlearn/corpus/core"
	"github.com/arlearn/corpus/storage"
)

// Config holds configuration for the reindexing operation.
type Config struct {
	// BatchSize is the number of chunks to embed in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reindexer re-embeds the stored chunk records of every completed document
// and replaces their vector index entries. Run it after switching embedding
// models; the stored chunk text is the source of truth, so no re-extraction
// or re-chunking happens.
type Reindexer struct {
	documents storage.DocumentRepository
	index     storage.VectorIndex
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
}

// NewReindexer creates a new reindexer.
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(documents storage.DocumentRepository, index storage.VectorIndex, embedder ai.Embedder, config *Config, progress io.Writer) *Reindexer {
	if config == nil {
		config = DefaultConfig()
	}

	return &Reindexer{
		documents: documents,
		index:     index,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(index, embedder, config.MaxRetries, config.RetryDelay),
	}
}

// Run executes the reindexing operation over all completed documents.
// Progress is reported to the configured writer.
func (r *Reindexer) Run(ctx context.Context) error {
	docs, err := r.documents.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	var completed []*core.Document
	totalChunks := 0
	for _, doc := range docs {
		if doc.Status != core.StatusCompleted {
			continue
		}
		completed = append(completed, doc)
		totalChunks += doc.ChunksCount
	}

	if totalChunks == 0 {
		fmt.Fprintf(r.progress, "No completed documents with chunks found (0 chunks)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reindexing of %d chunks across %d documents (batch size: %d)\n",
		totalChunks, len(completed), r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, totalChunks, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	for _, doc := range completed {
		chunks, err := r.documents.ChunksByDocument(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("failed to load chunks for document %s: %w", doc.ID, err)
		}

		for start := 0; start < len(chunks); start += r.config.BatchSize {
			end := start + r.config.BatchSize
			if end > len(chunks) {
				end = len(chunks)
			}

			if err := r.processor.Process(ctx, chunks[start:end]); err != nil {
				return fmt.Errorf("failed to process batch for document %s: %w", doc.ID, err)
			}

			processed += end - start
			tracker.Update(processed)
		}
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reindexing complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		processed, elapsed.Round(time.Second), float64(processed)/elapsed.Seconds())

	return nil
}
