package storage

import (
	"context"

	"github.com/arlearn/corpus/core"
)

// NullGraphStore is a GraphStore with no backing connection. Reads return
// empty results and Connected reports false, so the query path degrades
// gracefully when no knowledge graph is configured. Writes fail with
// ErrGraphUnavailable.
type NullGraphStore struct{}

var _ GraphStore = (*NullGraphStore)(nil)

// NewNullGraphStore creates a disconnected graph store.
func NewNullGraphStore() *NullGraphStore {
	return &NullGraphStore{}
}

// Connected always reports false.
func (*NullGraphStore) Connected() bool { return false }

// QueryFacts returns no facts.
func (*NullGraphStore) QueryFacts(ctx context.Context, text string, limit int) ([]core.GraphFact, error) {
	return nil, nil
}

// ProcedureSteps returns no steps.
func (*NullGraphStore) ProcedureSteps(ctx context.Context, procedure string) ([]core.ProcedureStep, error) {
	return nil, nil
}

// AddFact fails: there is nothing to write to.
func (*NullGraphStore) AddFact(ctx context.Context, fact core.GraphFact) error {
	return ErrGraphUnavailable
}

// AddProcedureStep fails: there is nothing to write to.
func (*NullGraphStore) AddProcedureStep(ctx context.Context, step core.ProcedureStep) error {
	return ErrGraphUnavailable
}

// Close is a no-op.
func (*NullGraphStore) Close() error { return nil }
