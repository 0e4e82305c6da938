// Package ingestion provides pipeline orchestration for processing documents.
//
// The Pipeline type manages the document processing workflow:
//   - Extracting text from the uploaded file
//   - Splitting pages into overlapping chunks
//   - Generating embeddings in batches
//   - Replacing the document's entries in the vector index
//
// Each document moves through a status state machine (uploading, processing,
// completed, failed) enforced by the document repository. Asynchronous
// processing is performed on a worker pool; errors are recorded on the
// document as a failed status and logged.
package ingestion
