package chunk

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlearn/corpus/core"
	"github.com/arlearn/corpus/extract"
)

func testDocument() *core.Document {
	return &core.Document{
		ID:       "doc-1",
		Title:    "Test",
		FileName: "test.txt",
		FileType: core.FileTypeTXT,
		Subject:  "Engineering",
		Status:   core.StatusUploading,
	}
}

func TestSplitDocument_UniformFiller(t *testing.T) {
	// 1500 characters with no boundaries: exactly two chunks, the first
	// spanning [0,1000) and the second starting at 800 = 1000 - overlap.
	text := strings.Repeat("a", 1500)
	s := NewSplitter()

	chunks, err := s.SplitDocument(testDocument(), []extract.Page{{Number: 1, Text: text}})
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, text[0:1000], chunks[0].Content)
	assert.Equal(t, text[800:1500], chunks[1].Content)
	assert.Equal(t, "doc-1_chunk_0", chunks[0].ID)
	assert.Equal(t, "doc-1_chunk_1", chunks[1].ID)
	assert.Equal(t, 1000, chunks[0].Metadata.ChunkSize)
	assert.Equal(t, 700, chunks[1].Metadata.ChunkSize)
}

func TestSplitDocument_ShortText(t *testing.T) {
	s := NewSplitter()

	chunks, err := s.SplitDocument(testDocument(), []extract.Page{{Number: 1, Text: "short text"}})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Index)
}

func TestSplitDocument_PrefersParagraphBoundary(t *testing.T) {
	// A paragraph break at 900 falls in the second half of the first window,
	// so the first chunk ends there instead of at the hard 1000-char cut.
	text := strings.Repeat("a", 898) + "\n\n" + strings.Repeat("b", 600)
	s := NewSplitter()

	chunks, err := s.SplitDocument(testDocument(), []extract.Page{{Number: 1, Text: text}})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, text[:900], chunks[0].Content)
	assert.True(t, strings.HasSuffix(chunks[0].Content, "\n\n"))
}

func TestSplitDocument_RunningIndexAcrossPages(t *testing.T) {
	pages := []extract.Page{
		{Number: 1, Text: strings.Repeat("a", 1500)},
		{Number: 2, Text: "page two"},
		{Number: 3, Text: "page three"},
	}
	s := NewSplitter()

	chunks, err := s.SplitDocument(testDocument(), pages)
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	// One counter across all pages, contiguous from zero.
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, core.ChunkID("doc-1", i), c.ID)
		require.NoError(t, core.ValidateChunk(&c))
	}
	assert.Equal(t, 1, chunks[0].Metadata.PageNumber)
	assert.Equal(t, 2, chunks[2].Metadata.PageNumber)
	assert.Equal(t, 3, chunks[3].Metadata.PageNumber)
}

func TestSplitDocument_SkipsEmptyPages(t *testing.T) {
	pages := []extract.Page{
		{Number: 1, Text: "   \n  "},
		{Number: 2, Text: "real content"},
		{Number: 3, Text: ""},
	}
	s := NewSplitter()

	chunks, err := s.SplitDocument(testDocument(), pages)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 2, chunks[0].Metadata.PageNumber)
	assert.Equal(t, 0, chunks[0].Index)
}

func TestSplitDocument_NoContent(t *testing.T) {
	pages := []extract.Page{
		{Number: 1, Text: ""},
		{Number: 2, Text: "  \t "},
	}
	s := NewSplitter()

	_, err := s.SplitDocument(testDocument(), pages)
	assert.ErrorIs(t, err, core.ErrChunking)
}

func TestSplitDocument_MultibyteHardCuts(t *testing.T) {
	// 700 three-byte runes and no split boundaries anywhere: hard cuts must
	// land on rune starts, never mid-rune.
	text := strings.Repeat("日", 700)
	s := NewSplitter()

	chunks, err := s.SplitDocument(testDocument(), []extract.Page{{Number: 1, Text: text}})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)

	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c.Content), "chunk %d is not valid UTF-8", c.Index)
		assert.NotEmpty(t, c.Content)
	}
	assert.True(t, strings.HasPrefix(chunks[0].Content, "日"))
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1].Content, "日"))
}

func TestPieces_Restartable(t *testing.T) {
	text := strings.Repeat("x", 2500)
	s := NewSplitter()

	collect := func() []string {
		var out []string
		for piece := range s.Pieces(text) {
			out = append(out, piece)
		}
		return out
	}

	first := collect()
	second := collect()
	assert.Equal(t, first, second)
	require.Len(t, first, 3)

	// Adjacent chunks share exactly the overlap region.
	assert.Equal(t, first[0][len(first[0])-DefaultOverlap:], first[1][:DefaultOverlap])
}

func TestNewSplitter_OverlapGuard(t *testing.T) {
	// An overlap that prevents forward progress is clamped.
	s := NewSplitter(WithChunkSize(100), WithOverlap(90))
	assert.Equal(t, 25, s.overlap)

	var count int
	for range s.Pieces(strings.Repeat("y", 1000)) {
		count++
		require.Less(t, count, 100, "splitter must terminate")
	}
	assert.Greater(t, count, 1)
}
