package corpus

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlearn/corpus/ai/mock"
	"github.com/arlearn/corpus/core"
	"github.com/arlearn/corpus/query"
)

func openTestCorpus(t *testing.T) *Corpus {
	t.Helper()

	c, err := Open("", WithInMemory(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCorpus_IngestAndQuery(t *testing.T) {
	c := openTestCorpus(t)
	ctx := context.Background()

	doc, err := c.IngestDocument(ctx, UploadRequest{
		Title:    "Anatomy Basics",
		Subject:  "anatomy",
		FileName: "anatomy.txt",
	}, []byte(strings.Repeat("The heart pumps blood through the body. ", 60)))
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, doc.Status)
	assert.Greater(t, doc.ChunksCount, 0)
	require.NotNil(t, doc.ProcessedAt)

	resp, err := c.Query(ctx, query.Request{Question: "How does the heart work?"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Answer)
	assert.Greater(t, resp.Confidence, 0.3)
	assert.NotEmpty(t, resp.Sources)
}

func TestCorpus_UploadDocumentAsync(t *testing.T) {
	c := openTestCorpus(t)
	ctx := context.Background()

	doc, err := c.UploadDocument(ctx, UploadRequest{
		Title:    "Physics Notes",
		FileName: "physics.txt",
	}, []byte(strings.Repeat("Force equals mass times acceleration. ", 50)))
	require.NoError(t, err)
	assert.Equal(t, core.StatusUploading, doc.Status)

	require.Eventually(t, func() bool {
		got, err := c.Document(ctx, doc.ID)
		return err == nil && got.Status == core.StatusCompleted
	}, 5*time.Second, 10*time.Millisecond)
}

func TestCorpus_UnsupportedFileType(t *testing.T) {
	c := openTestCorpus(t)

	_, err := c.IngestDocument(context.Background(), UploadRequest{
		Title:    "Spreadsheet",
		FileName: "data.xlsx",
	}, []byte("data"))
	assert.ErrorIs(t, err, core.ErrUnsupportedFileType)
}

func TestCorpus_ReprocessAndDelete(t *testing.T) {
	c := openTestCorpus(t)
	ctx := context.Background()

	doc, err := c.IngestDocument(ctx, UploadRequest{
		Title:    "Notes",
		FileName: "notes.txt",
	}, []byte(strings.Repeat("x", 2500)))
	require.NoError(t, err)
	firstCount := doc.ChunksCount
	assert.Greater(t, firstCount, 1)

	// reprocess with shorter content replaces everything
	doc, err = c.Reprocess(ctx, doc.ID, []byte("short replacement text"))
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, doc.Status)
	assert.Equal(t, 1, doc.ChunksCount)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Vectors)

	require.NoError(t, c.DeleteDocument(ctx, doc.ID))

	stats, err = c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Documents)
	assert.Equal(t, 0, stats.Vectors)
}

func TestCorpus_ProcedureSteps(t *testing.T) {
	c := openTestCorpus(t)
	ctx := context.Background()

	graph := c.GraphStore()
	require.NoError(t, graph.AddProcedureStep(ctx, core.ProcedureStep{
		Procedure: "cpr", Order: 2, Name: "Call for help",
	}))
	require.NoError(t, graph.AddProcedureStep(ctx, core.ProcedureStep{
		Procedure: "cpr", Order: 1, Name: "Check responsiveness",
	}))

	steps, err := c.ProcedureSteps(ctx, "cpr")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "Check responsiveness", steps[0].Name)
}

func TestCorpus_WithoutGraph(t *testing.T) {
	c, err := Open("", WithInMemory(), WithProvider(mock.NewMockProvider()), WithoutGraph())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	ctx := context.Background()
	assert.False(t, c.GraphStore().Connected())

	steps, err := c.ProcedureSteps(ctx, "cpr")
	require.NoError(t, err)
	assert.Empty(t, steps)

	// queries still answer from the vector side alone
	_, err = c.IngestDocument(ctx, UploadRequest{Title: "Notes", FileName: "n.txt"},
		[]byte("The mitochondria is the powerhouse of the cell."))
	require.NoError(t, err)

	resp, err := c.Query(ctx, query.Request{Question: "What is the mitochondria?"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Answer)
}

func TestCorpus_Stats(t *testing.T) {
	c := openTestCorpus(t)
	ctx := context.Background()

	_, err := c.IngestDocument(ctx, UploadRequest{Title: "A", FileName: "a.txt"}, []byte("alpha content"))
	require.NoError(t, err)
	_, err = c.IngestDocument(ctx, UploadRequest{Title: "B", FileName: "b.txt"}, []byte("   "))
	require.Error(t, err) // whitespace-only document fails processing

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 1, stats.ByStatus[core.StatusCompleted])
	assert.Equal(t, 1, stats.ByStatus[core.StatusFailed])
	assert.True(t, stats.GraphConnected)
}
