// Package reindex provides functionality for re-embedding stored document
// chunks with new or updated embedding models.
//
// This package supports batch processing of chunk records, progress
// tracking, and retry logic with exponential backoff. Re-embedding works
// from the stored chunk text, so documents are not re-extracted or
// re-chunked.
package reindex
