// Package extract converts raw document bytes into ordered page-level text
// segments. PDF documents yield one segment per physical page; DOCX and TXT
// documents yield a single synthetic page. A single unreadable PDF page
// produces an empty segment instead of failing the whole extraction.
package extract

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/ledongthuc/pdf"

	"github.com/arlearn/corpus/core"
)

const docxMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Page is one extracted text segment. Pages are 1-indexed.
type Page struct {
	Number int
	Text   string
}

// Extractor converts raw file bytes into page segments.
type Extractor struct {
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor creates a new extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		logger: slog.Default().With("component", "extractor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses data as the declared file type and returns its pages in
// order. It fails with core.ErrExtraction only when the byte stream cannot
// be parsed as the declared type at all.
func (e *Extractor) Extract(data []byte, kind core.FileType) ([]Page, error) {
	switch kind {
	case core.FileTypePDF:
		return e.extractPDF(data)
	case core.FileTypeDOCX:
		return e.extractDOCX(data)
	case core.FileTypeTXT:
		return []Page{{Number: 1, Text: strings.TrimSpace(string(data))}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedFileType, kind)
	}
}

func (e *Extractor) extractPDF(data []byte) ([]Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable pdf: %v", core.ErrExtraction, err)
	}

	total := reader.NumPage()
	pages := make([]Page, 0, total)
	for num := 1; num <= total; num++ {
		text := e.pdfPageText(reader, num)
		pages = append(pages, Page{Number: num, Text: strings.TrimSpace(text)})
	}

	e.logger.Debug("extracted pdf", "pages", total)
	return pages, nil
}

// pdfPageText extracts one page, tolerating corrupt pages. The pdf library
// can panic on malformed page trees, so the recover keeps one bad page from
// aborting the rest of the document.
func (e *Extractor) pdfPageText(reader *pdf.Reader, num int) (text string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("skipping unreadable pdf page", "page", num, "reason", r)
			text = ""
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		e.logger.Warn("skipping null pdf page", "page", num)
		return ""
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		e.logger.Warn("skipping unreadable pdf page", "page", num, "err", err)
		return ""
	}
	return text
}

func (e *Extractor) extractDOCX(data []byte) ([]Page, error) {
	result, err := docconv.Convert(bytes.NewReader(data), docxMimeType, false)
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable docx: %v", core.ErrExtraction, err)
	}

	e.logger.Debug("extracted docx", "length", len(result.Body))
	return []Page{{Number: 1, Text: strings.TrimSpace(result.Body)}}, nil
}
