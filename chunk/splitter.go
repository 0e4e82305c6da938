// Package chunk splits page-level text into overlapping chunks with stable,
// deterministic identifiers. Splitting prefers paragraph and sentence
// boundaries and falls back to hard character cuts when no boundary exists
// within the window.
package chunk

import (
	"fmt"
	"iter"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/arlearn/corpus/core"
	"github.com/arlearn/corpus/extract"
)

// DefaultChunkSize is the target chunk size in characters.
const DefaultChunkSize = 1000

// DefaultOverlap is the number of characters shared between adjacent chunks.
const DefaultOverlap = 200

// boundaries are the preferred split points, in priority order.
var boundaries = []string{"\n\n", "\n", ". ", "! ", "? ", " "}

// Splitter is a deterministic text splitter. The same input always produces
// the same chunks, which keeps chunk identity stable across reprocessing.
type Splitter struct {
	chunkSize int
	overlap   int
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between adjacent chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// NewSplitter creates a splitter with the given options.
func NewSplitter(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}
	for _, opt := range opts {
		opt(s)
	}

	// The overlap must leave room for forward progress on every cut.
	if s.overlap*2 >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}
	return s
}

// Pieces returns a lazy, finite, restartable sequence of the text's chunk
// contents. Whitespace-only text yields nothing. Every cut lands on a rune
// boundary, so chunks of valid UTF-8 input are themselves valid UTF-8.
func (s *Splitter) Pieces(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if strings.TrimSpace(text) == "" {
			return
		}
		if len(text) <= s.chunkSize {
			yield(text)
			return
		}

		start := 0
		for start < len(text) {
			end := start + s.chunkSize
			if end >= len(text) {
				yield(text[start:])
				return
			}
			if cut := s.boundaryCut(text, start, end); cut > 0 {
				end = cut
			} else {
				// hard cut: back off out of the middle of a rune
				end = runeStart(text, end)
			}
			if !yield(text[start:end]) {
				return
			}

			next := runeStart(text, end-s.overlap)
			if next <= start {
				next = end
			}
			start = next
		}
	}
}

// runeStart backs i off to the first byte of the rune containing text[i].
func runeStart(text string, i int) int {
	for i > 0 && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// boundaryCut searches backwards from end for the latest preferred boundary
// in the second half of the window. Returns 0 when only a hard cut is
// possible. Restricting cuts to the second half guarantees forward progress
// even after the overlap is subtracted.
func (s *Splitter) boundaryCut(text string, start, end int) int {
	minCut := start + s.chunkSize/2
	window := text[start:end]
	for _, sep := range boundaries {
		if i := strings.LastIndex(window, sep); i >= 0 {
			if cut := start + i + len(sep); cut > minCut {
				return cut
			}
		}
	}
	return 0
}

// SplitDocument splits all pages of a document into chunks. The chunk index
// is a single running counter across pages, not reset per page, so the index
// set of a fully split document is contiguous from 0. Pages with no usable
// text contribute nothing. A document that yields zero chunks overall fails
// with core.ErrChunking.
func (s *Splitter) SplitDocument(doc *core.Document, pages []extract.Page) ([]core.Chunk, error) {
	now := time.Now().UTC()

	var chunks []core.Chunk
	index := 0
	for _, page := range pages {
		for piece := range s.Pieces(page.Text) {
			if strings.TrimSpace(piece) == "" {
				continue
			}
			chunks = append(chunks, core.Chunk{
				ID:         core.ChunkID(doc.ID, index),
				DocumentID: doc.ID,
				Content:    piece,
				Index:      index,
				Metadata: core.ChunkMetadata{
					DocumentID: doc.ID,
					PageNumber: page.Number,
					ChunkSize:  len(piece),
					FileName:   doc.FileName,
					Subject:    doc.Subject,
					CreatedAt:  now,
				},
			})
			index++
		}
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document %s", core.ErrChunking, doc.ID)
	}
	return chunks, nil
}
