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

package core

import "errors"

// Pipeline error kinds. Call sites wrap these with fmt.Errorf("...: %w", ...)
// so orchestrators can classify failures with errors.Is and decide recovery
// policy centrally.
var (
	// ErrExtraction indicates the byte stream could not be parsed as the
	// declared file type at all. Individual unreadable pages do not raise it.
	ErrExtraction = errors.New("text extraction failed")

	// ErrChunking indicates no content survived splitting, so there is
	// nothing to index.
	ErrChunking = errors.New("no chunkable content")

	// ErrEmbedding indicates the embedding provider failed for a batch.
	// The whole ingestion run is aborted; no partial embedding set is stored.
	ErrEmbedding = errors.New("embedding generation failed")

	// ErrStore indicates a vector, graph, or record store is unavailable.
	ErrStore = errors.New("store unavailable")

	// ErrGeneration indicates the generation capability failed. It is
	// recovered locally with a fallback answer and never surfaces to callers.
	ErrGeneration = errors.New("answer generation failed")

	// ErrInvalidTransition indicates a document status update that the state
	// machine does not permit.
	ErrInvalidTransition = errors.New("invalid document status transition")

	// ErrUnsupportedFileType indicates a file type outside {pdf, docx, txt}.
	ErrUnsupportedFileType = errors.New("unsupported file type")
)
