package badger

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlearn/corpus/core"
	"github.com/arlearn/corpus/storage"
)

func testDocument(id string) *core.Document {
	return &core.Document{
		ID:       id,
		Title:    "Anatomy Basics",
		Subject:  "anatomy",
		FileName: "anatomy.pdf",
		FileType: core.FileTypePDF,
		Size:     2048,
		Status:   core.StatusUploading,
	}
}

func testChunks(documentID string, n int) []core.Chunk {
	chunks := make([]core.Chunk, n)
	for i := range chunks {
		chunks[i] = core.Chunk{
			ID:         core.ChunkID(documentID, i),
			DocumentID: documentID,
			Content:    fmt.Sprintf("chunk content %d", i),
			Index:      i,
			Metadata: core.ChunkMetadata{
				DocumentID: documentID,
				PageNumber: 1,
				ChunkSize:  16,
				FileName:   "anatomy.pdf",
			},
		}
	}
	return chunks
}

func TestDocumentRepository_CreateAndGet(t *testing.T) {
	backend, repo, _, _, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	doc := testDocument("doc-1")

	require.NoError(t, repo.CreateDocument(ctx, doc))
	assert.False(t, doc.CreatedAt.IsZero(), "CreatedAt should be stamped")

	got, err := repo.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Anatomy Basics", got.Title)
	assert.Equal(t, core.StatusUploading, got.Status)
	assert.Nil(t, got.ProcessedAt)
}

func TestDocumentRepository_CreateDuplicate(t *testing.T) {
	backend, repo, _, _, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, repo.CreateDocument(ctx, testDocument("doc-1")))

	err = repo.CreateDocument(ctx, testDocument("doc-1"))
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestDocumentRepository_CreateRejectsNonUploading(t *testing.T) {
	backend, repo, _, _, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	doc := testDocument("doc-1")
	doc.Status = core.StatusProcessing

	err = repo.CreateDocument(context.Background(), doc)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestDocumentRepository_GetNotFound(t *testing.T) {
	backend, repo, _, _, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	_, err = repo.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDocumentRepository_ListOrderedByID(t *testing.T) {
	backend, repo, _, _, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	for _, id := range []string{"doc-c", "doc-a", "doc-b"} {
		require.NoError(t, repo.CreateDocument(ctx, testDocument(id)))
	}

	docs, err := repo.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "doc-a", docs[0].ID)
	assert.Equal(t, "doc-b", docs[1].ID)
	assert.Equal(t, "doc-c", docs[2].ID)
}

func TestDocumentRepository_StatusLifecycle(t *testing.T) {
	backend, repo, _, _, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, repo.CreateDocument(ctx, testDocument("doc-1")))

	require.NoError(t, repo.UpdateDocumentStatus(ctx, "doc-1", core.StatusProcessing, 0))
	require.NoError(t, repo.UpdateDocumentStatus(ctx, "doc-1", core.StatusCompleted, 12))

	doc, err := repo.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, doc.Status)
	assert.Equal(t, 12, doc.ChunksCount)
	require.NotNil(t, doc.ProcessedAt)
}

func TestDocumentRepository_InvalidTransitions(t *testing.T) {
	backend, repo, _, _, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, repo.CreateDocument(ctx, testDocument("doc-1")))

	// uploading -> completed skips processing
	err = repo.UpdateDocumentStatus(ctx, "doc-1", core.StatusCompleted, 5)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)

	require.NoError(t, repo.UpdateDocumentStatus(ctx, "doc-1", core.StatusProcessing, 0))
	require.NoError(t, repo.UpdateDocumentStatus(ctx, "doc-1", core.StatusFailed, 0))

	// terminal states reject plain updates
	err = repo.UpdateDocumentStatus(ctx, "doc-1", core.StatusProcessing, 0)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestDocumentRepository_BeginReprocess(t *testing.T) {
	backend, repo, _, _, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, repo.CreateDocument(ctx, testDocument("doc-1")))

	// reprocess requires a terminal state
	err = repo.BeginReprocess(ctx, "doc-1")
	assert.ErrorIs(t, err, core.ErrInvalidTransition)

	require.NoError(t, repo.UpdateDocumentStatus(ctx, "doc-1", core.StatusProcessing, 0))
	require.NoError(t, repo.UpdateDocumentStatus(ctx, "doc-1", core.StatusCompleted, 7))

	require.NoError(t, repo.BeginReprocess(ctx, "doc-1"))

	doc, err := repo.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusUploading, doc.Status)
	assert.Equal(t, 0, doc.ChunksCount)
	assert.Nil(t, doc.ProcessedAt)
}

func TestDocumentRepository_ChunkRecords(t *testing.T) {
	backend, repo, _, _, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, repo.CreateDocument(ctx, testDocument("doc-1")))
	require.NoError(t, repo.CreateChunkRecords(ctx, testChunks("doc-1", 5)))

	count, err := repo.CountChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	chunks, err := repo.ChunksByDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, chunks, 5)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, core.ChunkID("doc-1", i), chunk.ID)
	}
}

func TestDocumentRepository_ChunkRecordsOverwrite(t *testing.T) {
	backend, repo, _, _, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, repo.CreateChunkRecords(ctx, testChunks("doc-1", 3)))

	// rewriting the same chunk IDs replaces in place
	updated := testChunks("doc-1", 2)
	updated[0].Content = "revised content 0"
	require.NoError(t, repo.CreateChunkRecords(ctx, updated))

	chunks, err := repo.ChunksByDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "revised content 0", chunks[0].Content)
}

func TestDocumentRepository_ReplaceChunkRecordsTrimsStale(t *testing.T) {
	backend, repo, _, _, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, repo.CreateDocument(ctx, testDocument("doc-1")))
	require.NoError(t, repo.CreateChunkRecords(ctx, testChunks("doc-1", 4)))

	// a smaller replacement set removes the trailing records
	require.NoError(t, repo.ReplaceChunkRecords(ctx, "doc-1", testChunks("doc-1", 1)))

	count, err := repo.CountChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	chunks, err := repo.ChunksByDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
}

func TestDocumentRepository_ReplaceChunkRecordsRejectsForeignChunks(t *testing.T) {
	backend, repo, _, _, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	err = repo.ReplaceChunkRecords(ctx, "doc-1", testChunks("doc-2", 2))
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestDocumentRepository_DeleteCascadesChunks(t *testing.T) {
	backend, repo, _, _, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, repo.CreateDocument(ctx, testDocument("doc-1")))
	require.NoError(t, repo.CreateDocument(ctx, testDocument("doc-2")))
	require.NoError(t, repo.CreateChunkRecords(ctx, testChunks("doc-1", 4)))
	require.NoError(t, repo.CreateChunkRecords(ctx, testChunks("doc-2", 2)))

	require.NoError(t, repo.DeleteDocument(ctx, "doc-1"))

	_, err = repo.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	count, err := repo.CountChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// other documents untouched
	count, err = repo.CountChunks(ctx, "doc-2")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDocumentRepository_DeleteNotFound(t *testing.T) {
	backend, repo, _, _, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	err = repo.DeleteDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
