package query

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlearn/corpus/ai/mock"
	"github.com/arlearn/corpus/core"
	"github.com/arlearn/corpus/storage"
	"github.com/arlearn/corpus/storage/badger"
)

type engineEnv struct {
	backend  *badger.Backend
	index    *badger.VectorIndex
	graph    *badger.GraphStore
	provider *mock.MockProvider
	engine   *Engine
}

func newEngineEnv(t *testing.T) *engineEnv {
	t.Helper()

	backend, _, index, graph, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	provider := mock.NewMockProvider().(*mock.MockProvider)

	engine, err := NewEngine(index, graph, provider)
	require.NoError(t, err)

	return &engineEnv{
		backend:  backend,
		index:    index,
		graph:    graph,
		provider: provider,
		engine:   engine,
	}
}

func (env *engineEnv) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	// pin the query embedding so hit order is predictable
	env.provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}

	require.NoError(t, env.index.Upsert(ctx, []storage.VectorEntry{
		{
			ID:       "doc-1_chunk_0",
			Content:  "The heart pumps blood through the body.",
			Metadata: map[string]string{"document_id": "doc-1", "subject": "anatomy"},
			Vector:   []float32{1, 0, 0},
		},
		{
			ID:       "doc-2_chunk_0",
			Content:  "Newton's laws describe motion.",
			Metadata: map[string]string{"document_id": "doc-2", "subject": "physics"},
			Vector:   []float32{0, 1, 0},
		},
	}))

	require.NoError(t, env.graph.AddFact(ctx, core.GraphFact{
		Node: "Heart", Relationship: "PUMPS", ConnectedNode: "Blood",
	}))
}

func TestEngine_Answer(t *testing.T) {
	env := newEngineEnv(t)
	env.seed(t)

	resp, err := env.engine.Answer(context.Background(), Request{Question: "How does the heart work?"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Answer)
	assert.Equal(t, IntentGeneral, resp.Intent)
	assert.Greater(t, resp.ProcessingTime.Nanoseconds(), int64(0))

	// both sources produced results: 0.3 + 0.4 + 0.3, plus a distance bonus
	assert.GreaterOrEqual(t, resp.Confidence, 1.0)

	// every retrieved result appears as a source
	var docSources, graphSources int
	for _, source := range resp.Sources {
		switch source.Type {
		case "document":
			docSources++
			assert.NotEmpty(t, source.ChunkID)
		case "knowledge_graph":
			graphSources++
			assert.InDelta(t, 0.8, source.RelevanceScore, 1e-9)
		}
	}
	assert.Equal(t, 2, docSources)
	assert.Equal(t, 1, graphSources)
}

func TestEngine_AnswerPromptContainsContext(t *testing.T) {
	env := newEngineEnv(t)
	env.seed(t)

	_, err := env.engine.Answer(context.Background(), Request{Question: "How does the heart work?"})
	require.NoError(t, err)

	gen := env.provider.GetMockGenerator()
	assert.Equal(t, 1, gen.CallCount())
	assert.Contains(t, gen.LastSystemPrompt(), "AI tutor")
	assert.Contains(t, gen.LastUserPrompt(), documentSectionHeader)
	assert.Contains(t, gen.LastUserPrompt(), knowledgeSectionHeader)
	assert.Contains(t, gen.LastUserPrompt(), "How does the heart work?")
}

func TestEngine_AnswerIntentSelectsPrompt(t *testing.T) {
	env := newEngineEnv(t)
	env.seed(t)
	ctx := context.Background()
	gen := env.provider.GetMockGenerator()

	_, err := env.engine.Answer(ctx, Request{Question: "How do I perform CPR?", Intent: IntentProcedural})
	require.NoError(t, err)
	assert.Contains(t, gen.LastSystemPrompt(), "step-by-step")

	_, err = env.engine.Answer(ctx, Request{Question: "Quiz me on anatomy", Intent: IntentAssessment})
	require.NoError(t, err)
	assert.Contains(t, gen.LastSystemPrompt(), "assessment")
}

func TestEngine_AnswerSubjectFilter(t *testing.T) {
	env := newEngineEnv(t)
	env.seed(t)

	resp, err := env.engine.Answer(context.Background(), Request{
		Question: "What about motion?",
		Subject:  "physics",
	})
	require.NoError(t, err)

	for _, source := range resp.Sources {
		if source.Type == "document" {
			assert.Equal(t, "doc-2", source.DocumentID)
		}
	}
}

func TestEngine_AnswerEmptyQuestion(t *testing.T) {
	env := newEngineEnv(t)

	_, err := env.engine.Answer(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestEngine_AnswerNoResults(t *testing.T) {
	env := newEngineEnv(t)

	resp, err := env.engine.Answer(context.Background(), Request{Question: "anything at all"})
	require.NoError(t, err)

	// base confidence only
	assert.InDelta(t, 0.3, resp.Confidence, 1e-9)
	assert.Empty(t, resp.Sources)
}

func TestEngine_AnswerGenerationFailureFallsBack(t *testing.T) {
	env := newEngineEnv(t)
	env.seed(t)

	env.provider.GetMockGenerator().CompleteFunc = func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		return "", errors.New("model overloaded")
	}

	resp, err := env.engine.Answer(context.Background(), Request{Question: "How does the heart work?"})
	require.NoError(t, err)

	assert.Equal(t, fallbackAnswer, resp.Answer)
	// retrieval still informs confidence and sources
	assert.GreaterOrEqual(t, resp.Confidence, 1.0)
	assert.NotEmpty(t, resp.Sources)
}

func TestEngine_AnswerVectorFailureDegrades(t *testing.T) {
	env := newEngineEnv(t)
	env.seed(t)

	env.provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedder down")
	}

	resp, err := env.engine.Answer(context.Background(), Request{Question: "How does the heart work?"})
	require.NoError(t, err)

	// graph facts still retrieved: 0.3 base + 0.3 graph
	assert.InDelta(t, 0.6, resp.Confidence, 1e-9)
	for _, source := range resp.Sources {
		assert.Equal(t, "knowledge_graph", source.Type)
	}
}

func TestEngine_AnswerCallTimeoutBoundsEmbedding(t *testing.T) {
	env := newEngineEnv(t)
	env.seed(t)

	engine, err := NewEngine(env.index, env.graph, env.provider, WithCallTimeout(20*time.Millisecond))
	require.NoError(t, err)

	// an embedder that never returns until its context expires
	env.provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	resp, err := engine.Answer(context.Background(), Request{Question: "How does the heart work?"})
	require.NoError(t, err)

	// the timed-out vector source degrades; graph facts still retrieved
	assert.InDelta(t, 0.6, resp.Confidence, 1e-9)
	for _, source := range resp.Sources {
		assert.Equal(t, "knowledge_graph", source.Type)
	}
}

func TestEngine_AnswerGraphDisconnectedDegrades(t *testing.T) {
	backend, _, index, _, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	provider := mock.NewMockProvider().(*mock.MockProvider)
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}

	require.NoError(t, index.Upsert(context.Background(), []storage.VectorEntry{{
		ID:       "doc-1_chunk_0",
		Content:  "The heart pumps blood.",
		Metadata: map[string]string{"document_id": "doc-1"},
		Vector:   []float32{1, 0, 0},
	}}))

	engine, err := NewEngine(index, storage.NewNullGraphStore(), provider)
	require.NoError(t, err)

	resp, err := engine.Answer(context.Background(), Request{Question: "How does the heart work?"})
	require.NoError(t, err)

	// vector hits only: 0.3 base + 0.4 hits + distance bonus 0.2
	assert.InDelta(t, 0.9, resp.Confidence, 1e-6)
	for _, source := range resp.Sources {
		assert.Equal(t, "document", source.Type)
	}
}

func TestEngine_AnswerBothSourcesFailing(t *testing.T) {
	env := newEngineEnv(t)
	env.seed(t)

	env.provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedder down")
	}
	require.NoError(t, env.backend.Close())
	// a closed backend reports disconnected, which is a skip, not a failure;
	// reopen the scenario with a graph that errors instead
	backend, _, index, _, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	engine, err := NewEngine(index, failingGraph{storage.NewNullGraphStore()}, env.provider)
	require.NoError(t, err)

	_, err = engine.Answer(context.Background(), Request{Question: "anything"})
	assert.ErrorIs(t, err, ErrRetrievalFailed)
}

// failingGraph reports connected but errors on every read.
type failingGraph struct {
	*storage.NullGraphStore
}

func (failingGraph) Connected() bool { return true }

func (failingGraph) QueryFacts(ctx context.Context, text string, limit int) ([]core.GraphFact, error) {
	return nil, errors.New("graph down")
}

func TestParseIntent(t *testing.T) {
	cases := []struct {
		in      string
		want    Intent
		wantErr bool
	}{
		{"", IntentGeneral, false},
		{"general", IntentGeneral, false},
		{"Procedural", IntentProcedural, false},
		{" ASSESSMENT ", IntentAssessment, false},
		{"conversational", "", true},
	}
	for _, tc := range cases {
		got, err := ParseIntent(tc.in)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrUnknownIntent, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestEngine_MaxResultsClamped(t *testing.T) {
	env := newEngineEnv(t)
	env.seed(t)

	// an out-of-range request still succeeds with clamped retrieval
	resp, err := env.engine.Answer(context.Background(), Request{
		Question:   "heart",
		MaxResults: 500,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(resp.Sources), maxMaxResults*2)
	assert.False(t, strings.Contains(resp.Answer, "error"))
}
