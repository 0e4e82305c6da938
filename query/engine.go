package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arlearn/corpus/ai"
	"github.com/arlearn/corpus/core"
	"github.com/arlearn/corpus/storage"
)

// Engine answers questions by hybrid retrieval: a vector similarity search
// and a knowledge graph lookup run concurrently, their results are fused
// into one context block, and an answer is generated from it.
type Engine struct {
	index       storage.VectorIndex
	graph       storage.GraphStore
	embedder    ai.Embedder
	generator   ai.Generator
	callTimeout time.Duration
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithCallTimeout bounds each AI provider call (question embedding, answer
// generation) with its own deadline. Zero, the default, leaves calls bounded
// only by the caller's context.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Engine) error {
		if d > 0 {
			e.callTimeout = d
		}
		return nil
	}
}

// NewEngine creates a new query engine.
func NewEngine(
	index storage.VectorIndex,
	graph storage.GraphStore,
	provider ai.Provider,
	opts ...Option,
) (*Engine, error) {
	if index == nil {
		return nil, ErrVectorIndexRequired
	}
	if graph == nil {
		return nil, ErrGraphStoreRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	e := &Engine{
		index:     index,
		graph:     graph,
		embedder:  provider.Embedder(),
		generator: provider.Generator(),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Answer runs the full query cycle for one request.
func (e *Engine) Answer(ctx context.Context, req Request) (*Response, error) {
	return e.AnswerWithMonitor(ctx, req, nil)
}

// AnswerWithMonitor runs the full query cycle with monitoring. The monitor
// receives callbacks at each stage of the process.
//
// Retrieval sources degrade independently: one failing source contributes
// empty results, and only both sources failing fails the query. A
// generation failure yields a fixed fallback answer with confidence and
// sources intact.
func (e *Engine) AnswerWithMonitor(ctx context.Context, req Request, monitor QueryMonitor) (*Response, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	question := req.Question
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	maxResults := req.MaxResults
	if maxResults < 1 {
		maxResults = defaultMaxResults
	}
	if maxResults > maxMaxResults {
		maxResults = maxMaxResults
	}
	intent := req.Intent
	if intent == "" {
		intent = IntentGeneral
	}

	start := time.Now()
	monitor.Start(question)

	hits, facts, err := e.retrieve(ctx, req, maxResults)
	if err != nil {
		return nil, err
	}
	monitor.AfterVectorSearch(hits)
	monitor.AfterGraphSearch(facts)

	contextText := BuildContext(hits, facts)
	monitor.BeforeGeneration(contextText)

	genCtx, cancel := e.callContext(ctx)
	answer, err := e.generator.Complete(genCtx, systemPrompt(intent), userPrompt(question, contextText))
	cancel()
	if err != nil {
		e.logger.Error("error generating answer", "err", err)
		answer = fallbackAnswer
	}

	distances := make([]float64, len(hits))
	for i, hit := range hits {
		distances[i] = hit.Distance
	}

	response := &Response{
		Answer:         answer,
		Confidence:     scoreConfidence(distances, len(facts)),
		Sources:        buildSources(hits, facts),
		Intent:         intent,
		ProcessingTime: time.Since(start),
	}
	monitor.Finish(response)

	return response, nil
}

// callContext derives a per-call context from ctx when a call timeout is
// configured.
func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.callTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.callTimeout)
}

// retrieve runs both retrieval sources concurrently. Each source degrades
// to empty results on failure; both failing fails the retrieval.
func (e *Engine) retrieve(ctx context.Context, req Request, maxResults int) ([]core.VectorHit, []core.GraphFact, error) {
	var (
		hits     []core.VectorHit
		facts    []core.GraphFact
		vecErr   error
		graphErr error
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		embedCtx, cancel := e.callContext(gctx)
		embedding, err := e.embedder.EmbedText(embedCtx, req.Question)
		cancel()
		if err != nil {
			e.logger.Error("error embedding question", "err", err)
			vecErr = fmt.Errorf("embedding question: %w", err)
			return nil
		}

		var filter map[string]string
		if req.Subject != "" {
			filter = map[string]string{"subject": req.Subject}
		}

		hits, err = e.index.Search(gctx, embedding, maxResults, filter)
		if err != nil {
			e.logger.Error("error retrieving from vector index", "err", err)
			vecErr = fmt.Errorf("vector search: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if !e.graph.Connected() {
			e.logger.Warn("graph store not connected, skipping graph retrieval")
			return nil
		}
		var err error
		facts, err = e.graph.QueryFacts(gctx, req.Question, maxResults)
		if err != nil {
			e.logger.Error("error retrieving from knowledge graph", "err", err)
			graphErr = fmt.Errorf("graph query: %w", err)
		}
		return nil
	})

	// goroutines record failures instead of returning them, so Wait only
	// propagates context cancellation
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if vecErr != nil && graphErr != nil {
		return nil, nil, fmt.Errorf("%w: %v; %v", ErrRetrievalFailed, vecErr, graphErr)
	}
	if vecErr != nil {
		hits = nil
	}
	if graphErr != nil {
		facts = nil
	}

	return hits, facts, nil
}
