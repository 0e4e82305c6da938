package query

import "github.com/arlearn/corpus/core"

// QueryMonitor provides hooks to observe the query process.
// Implement this interface to track intermediate steps and results.
type QueryMonitor interface {
	Start(question string)
	AfterVectorSearch(hits []core.VectorHit)
	AfterGraphSearch(facts []core.GraphFact)
	BeforeGeneration(contextText string)
	Finish(response *Response)
}

// noopMonitor is a no-op implementation of QueryMonitor
type noopMonitor struct{}

var _ QueryMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                        {}
func (n *noopMonitor) AfterVectorSearch(_ []core.VectorHit)  {}
func (n *noopMonitor) AfterGraphSearch(_ []core.GraphFact)   {}
func (n *noopMonitor) BeforeGeneration(_ string)             {}
func (n *noopMonitor) Finish(_ *Response)                    {}
