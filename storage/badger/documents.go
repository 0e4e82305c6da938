package badger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/arlearn/corpus/core"
	"github.com/arlearn/corpus/storage"
)

// DocumentRepository implements storage.DocumentRepository using BadgerDB.
type DocumentRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a document repository on the given backend.
func NewDocumentRepository(backend *Backend) *DocumentRepository {
	return &DocumentRepository{
		backend: backend,
		logger:  slog.Default(),
	}
}

// CreateDocument persists a new document record.
func (r *DocumentRepository) CreateDocument(ctx context.Context, doc *core.Document) error {
	if err := core.ValidateDocument(doc); err != nil {
		return err
	}
	if doc.Status != core.StatusUploading {
		return fmt.Errorf("%w: document %s created in state %s, want %s",
			core.ErrInvalidTransition, doc.ID, doc.Status, core.StatusUploading)
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(doc.ID)
		if _, err := tx.Get(key); err == nil {
			return fmt.Errorf("%w: document %s already exists", storage.ErrInvalidQuery, doc.ID)
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		data, err := storage.MarshalDocument(doc)
		if err != nil {
			return err
		}
		if err := tx.Set(key, data); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id string) (*core.Document, error) {
	var doc *core.Document

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentKey(id))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: document %s", storage.ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			doc, err = storage.UnmarshalDocument(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// ListDocuments returns all document records, ordered by ID.
func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]*core.Document, error) {
	var docs []*core.Document

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				doc, err := storage.UnmarshalDocument(val)
				if err != nil {
					return err
				}
				docs = append(docs, doc)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return docs, nil
}

// UpdateDocumentStatus transitions a document's status, enforcing the state
// machine. Entering completed records chunksCount and stamps ProcessedAt.
func (r *DocumentRepository) UpdateDocumentStatus(ctx context.Context, id string, status core.DocumentStatus, chunksCount int) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := readDocument(tx, id)
		if err != nil {
			return err
		}

		if !doc.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: document %s: %s -> %s",
				core.ErrInvalidTransition, id, doc.Status, status)
		}

		doc.Status = status
		if status == core.StatusCompleted {
			doc.ChunksCount = chunksCount
			now := time.Now().UTC()
			doc.ProcessedAt = &now
		}

		data, err := storage.MarshalDocument(doc)
		if err != nil {
			return err
		}
		if err := tx.Set(makeDocumentKey(id), data); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// BeginReprocess moves a terminal document back to uploading and clears its
// processing results, starting a fresh cycle.
func (r *DocumentRepository) BeginReprocess(ctx context.Context, id string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := readDocument(tx, id)
		if err != nil {
			return err
		}

		if !doc.Status.Terminal() {
			return fmt.Errorf("%w: document %s: reprocess from non-terminal state %s",
				core.ErrInvalidTransition, id, doc.Status)
		}

		doc.Status = core.StatusUploading
		doc.ChunksCount = 0
		doc.ProcessedAt = nil

		data, err := storage.MarshalDocument(doc)
		if err != nil {
			return err
		}
		if err := tx.Set(makeDocumentKey(id), data); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// CreateChunkRecords persists chunk records, overwriting existing records
// with the same chunk ID.
func (r *DocumentRepository) CreateChunkRecords(ctx context.Context, chunks []core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for i := range chunks {
			chunk := &chunks[i]
			if err := core.ValidateChunk(chunk); err != nil {
				return err
			}
			data, err := storage.MarshalChunk(chunk)
			if err != nil {
				return err
			}
			if err := tx.Set(makeChunkKey(chunk.DocumentID, chunk.Index), data); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// ReplaceChunkRecords replaces a document's chunk record set wholesale.
// Records left over from a previous, larger set are removed in the same
// transaction, so a shrinking reprocess cannot leave stale trailing records.
func (r *DocumentRepository) ReplaceChunkRecords(ctx context.Context, documentID string, chunks []core.Chunk) error {
	for i := range chunks {
		chunk := &chunks[i]
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}
		if chunk.DocumentID != documentID {
			return fmt.Errorf("%w: chunk %s belongs to document %s, not %s",
				storage.ErrInvalidQuery, chunk.ID, chunk.DocumentID, documentID)
		}
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		// Collect existing keys before writing; Badger iterators must not
		// observe writes made by the same transaction.
		var staleKeys [][]byte
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkScanPrefix(documentID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			staleKeys = append(staleKeys, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for _, key := range staleKeys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		for i := range chunks {
			chunk := &chunks[i]
			data, err := storage.MarshalChunk(chunk)
			if err != nil {
				return err
			}
			if err := tx.Set(makeChunkKey(chunk.DocumentID, chunk.Index), data); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// ChunksByDocument returns a document's chunk records ordered by index.
// Fixed-width index encoding in the key makes iteration order match chunk
// order.
func (r *DocumentRepository) ChunksByDocument(ctx context.Context, documentID string) ([]core.Chunk, error) {
	var chunks []core.Chunk

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkScanPrefix(documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				chunk, err := storage.UnmarshalChunk(val)
				if err != nil {
					return err
				}
				chunks = append(chunks, *chunk)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return chunks, nil
}

// CountChunks returns the number of chunk records held for a document.
func (r *DocumentRepository) CountChunks(ctx context.Context, documentID string) (int, error) {
	count := 0

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkScanPrefix(documentID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// DeleteDocument removes a document and all of its chunk records.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, id string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if _, err := readDocument(tx, id); err != nil {
			return err
		}

		// Collect chunk keys before deleting; Badger iterators must not
		// observe writes made by the same transaction.
		var chunkKeys [][]byte
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkScanPrefix(id)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			chunkKeys = append(chunkKeys, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		if err := tx.Delete(makeDocumentKey(id)); err != nil {
			return err
		}
		for _, key := range chunkKeys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Close releases resources held by the repository. The underlying backend
// is owned by the caller and stays open.
func (r *DocumentRepository) Close() error {
	return nil
}

func readDocument(tx *badger.Txn, id string) (*core.Document, error) {
	item, err := tx.Get(makeDocumentKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("%w: document %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
