package badger

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-crypt/x/blake2b"

	"github.com/arlearn/corpus/core"
	"github.com/arlearn/corpus/storage"
)

// GraphStore implements storage.GraphStore on an embedded BadgerDB keyspace.
// Facts are content-addressed by a BLAKE2b hash of the triple, so storing
// the same fact twice overwrites the same key.
type GraphStore struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.GraphStore = (*GraphStore)(nil)

// NewGraphStore creates a graph store on the given backend.
func NewGraphStore(backend *Backend) *GraphStore {
	return &GraphStore{
		backend: backend,
		logger:  slog.Default(),
	}
}

// Connected reports whether the store has an open backend.
func (g *GraphStore) Connected() bool {
	return g.backend != nil && !g.backend.IsClosed()
}

// QueryFacts returns up to limit facts matched by case-insensitive substring
// search. A fact matches when any word of text (three characters or longer)
// appears in the fact's node, relationship, or connected-node text.
func (g *GraphStore) QueryFacts(ctx context.Context, text string, limit int) ([]core.GraphFact, error) {
	if !g.Connected() {
		g.logger.Warn("graph store not connected, returning no facts")
		return nil, nil
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", storage.ErrInvalidQuery, limit)
	}

	needles := queryNeedles(text)
	if len(needles) == 0 {
		return nil, nil
	}

	var facts []core.GraphFact

	err := g.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(factPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid() && len(facts) < limit; iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				fact, err := storage.UnmarshalGraphFact(val)
				if err != nil {
					return err
				}
				if factMatches(*fact, needles) {
					facts = append(facts, *fact)
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
		return nil, err
	}

	return facts, nil
}

// ProcedureSteps returns the ordered steps of a named procedure. Fixed-width
// order encoding in the key makes iteration order match step order.
func (g *GraphStore) ProcedureSteps(ctx context.Context, procedure string) ([]core.ProcedureStep, error) {
	if !g.Connected() {
		g.logger.Warn("graph store not connected, returning no procedure steps")
		return nil, nil
	}

	var steps []core.ProcedureStep

	err := g.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeProcedureScanPrefix(procedure)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				step, err := storage.UnmarshalProcedureStep(val)
				if err != nil {
					return err
				}
				steps = append(steps, *step)
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

	return steps, nil
}

// AddFact stores a fact under its content-derived key.
func (g *GraphStore) AddFact(ctx context.Context, fact core.GraphFact) error {
	if !g.Connected() {
		return storage.ErrGraphUnavailable
	}
	if fact.Node == "" || fact.Relationship == "" {
		return fmt.Errorf("%w: fact requires node and relationship", storage.ErrInvalidQuery)
	}

	return g.backend.WithTx(func(tx *badger.Txn) error {
		data, err := storage.MarshalGraphFact(&fact)
		if err != nil {
			return err
		}
		if err := tx.Set(makeFactKey(factID(fact)), data); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// AddProcedureStep stores one step of a procedure, overwriting any existing
// step with the same procedure and order.
func (g *GraphStore) AddProcedureStep(ctx context.Context, step core.ProcedureStep) error {
	if !g.Connected() {
		return storage.ErrGraphUnavailable
	}
	if step.Procedure == "" || step.Name == "" {
		return fmt.Errorf("%w: procedure step requires procedure and name", storage.ErrInvalidQuery)
	}

	return g.backend.WithTx(func(tx *badger.Txn) error {
		data, err := storage.MarshalProcedureStep(&step)
		if err != nil {
			return err
		}
		if err := tx.Set(makeProcedureKey(step.Procedure, step.Order), data); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Close releases resources held by the store. The underlying backend is
// owned by the caller and stays open.
func (g *GraphStore) Close() error {
	return nil
}

// factID generates a deterministic ID from the fact triple using BLAKE2b
// hashing, so identical facts map to identical keys.
func factID(fact core.GraphFact) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(fact.Node))
	h.Write([]byte{0})
	h.Write([]byte(fact.Relationship))
	h.Write([]byte{0})
	h.Write([]byte(fact.ConnectedNode))
	return binary.LittleEndian.Uint64(h.Sum(nil))
}

// queryNeedles lowercases text and keeps words of three characters or more,
// stripped of surrounding punctuation.
func queryNeedles(text string) []string {
	var needles []string
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if len(word) >= 3 {
			needles = append(needles, word)
		}
	}
	return needles
}

func factMatches(fact core.GraphFact, needles []string) bool {
	repr := strings.ToLower(fact.Node + " " + fact.Relationship + " " + fact.ConnectedNode)
	for _, needle := range needles {
		if strings.Contains(repr, needle) {
			return true
		}
	}
	return false
}
