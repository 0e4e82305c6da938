package badger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/arlearn/corpus/core"
	"github.com/arlearn/corpus/storage"
)

// VectorIndex implements storage.VectorIndex using a brute-force scan over
// BadgerDB. Vectors are L2-normalized on write and on search, so the
// reported distance is cosine distance 1 - dot, in [0, 2].
type VectorIndex struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.VectorIndex = (*VectorIndex)(nil)

// NewVectorIndex creates a vector index on the given backend.
func NewVectorIndex(backend *Backend) *VectorIndex {
	return &VectorIndex{
		backend: backend,
		logger:  slog.Default(),
	}
}

// Upsert writes entries, overwriting any existing entry with the same ID.
func (v *VectorIndex) Upsert(ctx context.Context, entries []storage.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	return v.backend.WithTx(func(tx *badger.Txn) error {
		for i := range entries {
			entry := entries[i]
			if entry.ID == "" {
				return fmt.Errorf("%w: vector entry with empty ID", storage.ErrInvalidQuery)
			}
			if len(entry.Vector) == 0 {
				return fmt.Errorf("%w: vector entry %s has no vector", storage.ErrInvalidQuery, entry.ID)
			}
			entry.Vector = normalizeVector(entry.Vector)

			data, err := storage.MarshalVectorEntry(&entry)
			if err != nil {
				return err
			}
			if err := tx.Set(makeVectorKey(entry.ID), data); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Search returns up to k hits ordered by ascending distance.
func (v *VectorIndex) Search(ctx context.Context, vector []float32, k int, filter map[string]string) ([]core.VectorHit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", storage.ErrInvalidQuery, k)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrInvalidQuery)
	}
	query := normalizeVector(vector)

	var hits []core.VectorHit

	err := v.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(vectorPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				entry, err := storage.UnmarshalVectorEntry(val)
				if err != nil {
					return err
				}
				if !matchesFilter(entry.Metadata, filter) {
					return nil
				}
				hits = append(hits, core.VectorHit{
					ChunkID:  entry.ID,
					Content:  entry.Content,
					Metadata: entry.Metadata,
					Distance: float64(1 - dotProduct(query, entry.Vector)),
				})
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

	slices.SortFunc(hits, func(a, b core.VectorHit) int {
		if a.Distance < b.Distance {
			return -1
		}
		if a.Distance > b.Distance {
			return 1
		}
		return 0
	})
	if len(hits) > k {
		hits = hits[:k]
	}

	return hits, nil
}

// Delete removes all entries whose metadata matches the filter. An empty
// filter matches everything.
func (v *VectorIndex) Delete(ctx context.Context, filter map[string]string) error {
	return v.backend.WithTx(func(tx *badger.Txn) error {
		var keys [][]byte

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(vectorPrefix)
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			err := item.Value(func(val []byte) error {
				entry, err := storage.UnmarshalVectorEntry(val)
				if err != nil {
					return err
				}
				if matchesFilter(entry.Metadata, filter) {
					keys = append(keys, item.KeyCopy(nil))
				}
				return nil
			})
			if err != nil {
				iter.Close()
				return err
			}
		}
		iter.Close()

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Count returns the number of entries matching the filter.
func (v *VectorIndex) Count(ctx context.Context, filter map[string]string) (int, error) {
	count := 0

	err := v.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(vectorPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				entry, err := storage.UnmarshalVectorEntry(val)
				if err != nil {
					return err
				}
				if matchesFilter(entry.Metadata, filter) {
					count++
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Close releases resources held by the index. The underlying backend is
// owned by the caller and stays open.
func (v *VectorIndex) Close() error {
	return nil
}

// matchesFilter reports whether metadata satisfies every equality pair in
// filter. A nil or empty filter matches everything.
func matchesFilter(metadata, filter map[string]string) bool {
	for key, want := range filter {
		if metadata[key] != want {
			return false
		}
	}
	return true
}

// normalizeVector returns the L2-normalized copy of v. Zero vectors are
// returned unchanged.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return v
	}

	norm := float32(math.Sqrt(sumSquares))
	normalized := make([]float32, len(v))
	for i, x := range v {
		normalized[i] = x / norm
	}
	return normalized
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
